package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/kfanim/internal/gentime"
	"github.com/ivlev/kfanim/internal/params"
)

// CurrentVersion is written by WriteProject.
const CurrentVersion = "1.0"

// Project is a document listing effects and their parameter values.
type Project struct {
	Version string       `yaml:"version"`
	FPS     gentime.Rate `yaml:"fps"`
	Locale  string       `yaml:"locale,omitempty"`
	Effects []Effect     `yaml:"effects"`
}

// Effect is an effect instance placed on the timeline
type Effect struct {
	ID       string  `yaml:"id,omitempty"`
	Name     string  `yaml:"name"`
	In       int     `yaml:"in"`       // first frame
	Duration int     `yaml:"duration"` // length in frames
	Params   []Param `yaml:"params"`
}

// Param is one parameter with its animation string
type Param struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	params.Range `yaml:",inline"`
	Value        string `yaml:"value"`
}

// Definition converts p to a parameter definition.
func (p Param) Definition() (params.Definition, error) {
	typ, err := params.ParseType(p.Type)
	if err != nil {
		return params.Definition{}, fmt.Errorf("param %s: %w", p.Name, err)
	}
	return params.Definition{Name: p.Name, Type: typ, Range: p.Range}, nil
}

// WriteProject writes a project to a YAML file
func WriteProject(p *Project, path string) error {
	if p.Version == "" {
		p.Version = CurrentVersion
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeProject(data)
}

// DecodeProject parses a YAML document and fills defaults.
func DecodeProject(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if !p.FPS.Valid() {
		p.FPS = gentime.PAL
	}
	for i := range p.Effects {
		e := &p.Effects[i]
		if e.Name == "" {
			return nil, fmt.Errorf("effect %d has no name", i)
		}
		for j := range e.Params {
			if e.Params[j].Factor == 0 {
				e.Params[j].Factor = 1
			}
		}
	}
	return &p, nil
}
