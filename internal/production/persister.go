// Package production provides production integrations: persistence, event
// publishing, visualization and telemetry.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/uimachines/internal/core"
)

// JSONPersister is a file-based persister storing one JSON record per machine.
type JSONPersister[C any] struct {
	dir string
}

var _ core.Persister[struct{}] = (*JSONPersister[struct{}])(nil)

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister[C any](dir string) (*JSONPersister[C], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister[C]{dir: dir}, nil
}

func (p *JSONPersister[C]) Save(ctx context.Context, rec core.Record[C]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeRecord(p.dir, rec.MachineID, ".json", data)
}

func (p *JSONPersister[C]) Load(ctx context.Context, machineID string) (core.Record[C], error) {
	var rec core.Record[C]
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	data, err := readRecord(p.dir, machineID, ".json")
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return core.Record[C]{}, fmt.Errorf("json unmarshal: %w", err)
	}
	rec.MachineID = machineID
	return rec, nil
}

// YAMLPersister is a file-based persister storing one YAML record per machine.
type YAMLPersister[C any] struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister[C any](dir string) (*YAMLPersister[C], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister[C]{dir: dir}, nil
}

func (p *YAMLPersister[C]) Save(ctx context.Context, rec core.Record[C]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeRecord(p.dir, rec.MachineID, ".yaml", data)
}

func (p *YAMLPersister[C]) Load(ctx context.Context, machineID string) (core.Record[C], error) {
	var rec core.Record[C]
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	data, err := readRecord(p.dir, machineID, ".yaml")
	if err != nil {
		return rec, err
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return core.Record[C]{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	rec.MachineID = machineID
	return rec, nil
}

func recordPath(dir, machineID, ext string) (string, error) {
	if machineID == "" || strings.ContainsAny(machineID, `/\`) || machineID == "." || machineID == ".." {
		return "", fmt.Errorf("invalid machine ID %q", machineID)
	}
	return filepath.Join(dir, machineID+ext), nil
}

// writeRecord replaces the file through a rename so readers never see a
// partial record.
func writeRecord(dir, machineID, ext string, data []byte) error {
	fn, err := recordPath(dir, machineID, ext)
	if err != nil {
		return err
	}
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	return nil
}

func readRecord(dir, machineID, ext string) ([]byte, error) {
	fn, err := recordPath(dir, machineID, ext)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
