// Package dashboard renders Grafana dashboards for the GreptimeDB tables
// written by the simulator.
package dashboard

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"threatsim/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

func funcMap() template.FuncMap {
	return template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
}

type tables struct {
	Threat      string
	Hit         string
	Observation string
	State       string
}

// Render parses the embedded dashboard templates and writes rendered
// dashboards to outDir. Table names follow the telemetry package.
func Render(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data := struct{ Tables tables }{tables{
		Threat:      telemetry.ThreatTableName,
		Hit:         telemetry.HitTableName,
		Observation: telemetry.ObservationTableName,
		State:       telemetry.StateTableName,
	}}
	names, err := fs.Glob(templates, "templates/*.json.tmpl")
	if err != nil {
		return err
	}
	for _, path := range names {
		t, err := template.New(filepath.Base(path)).Funcs(funcMap()).ParseFS(templates, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", filepath.Base(path), err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
