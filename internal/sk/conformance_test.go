package sk

import (
	"context"
	"errors"
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

type conformanceCase struct {
	Name  string `yaml:"name"`
	Src   string `yaml:"src"`
	Type  string `yaml:"type"`
	Want  string `yaml:"want"`
	Error string `yaml:"error"`
}

func loadConformance(t *testing.T) []conformanceCase {
	t.Helper()
	data, err := os.ReadFile("testdata/conformance.yaml")
	if err != nil {
		t.Fatalf("read fixtures: %v", err)
	}
	var cases []conformanceCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("decode fixtures: %v", err)
	}
	if len(cases) == 0 {
		t.Fatalf("no conformance cases")
	}
	return cases
}

func TestConformance(t *testing.T) {
	for _, tc := range loadConformance(t) {
		t.Run(tc.Name, func(t *testing.T) {
			v, err := NewEng().Run(context.Background(), "conformance", tc.Src)
			if tc.Error != "" {
				var re *RuntimeError
				if !errors.As(err, &re) {
					t.Fatalf("expected %s, got %v", tc.Error, err)
				}
				if re.Kind.String() != tc.Error {
					t.Fatalf("expected %s, got %s: %s", tc.Error, re.Kind, re.Msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if v.TypeName() != tc.Type {
				t.Fatalf("expected type %s, got %s", tc.Type, v.TypeName())
			}
			if v.Repr() != tc.Want {
				t.Fatalf("expected %s, got %s", tc.Want, v.Repr())
			}
		})
	}
}
