package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is the optional hmg-index.yaml file. Everything in it has a
// built-in default, so a missing file is not an error.
type Document struct {
	App          AppInfo            `yaml:"app"`
	Notices      []NoticeSeed       `yaml:"notices,omitempty"`
	Organization []OrganizationSeed `yaml:"organization,omitempty"`
	Alert        AlertDocument      `yaml:"alert,omitempty"`
	Workflow     WorkflowDocument   `yaml:"workflow,omitempty"`
}

type AppInfo struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Greeting string `yaml:"greeting,omitempty"`
}

// NoticeSeed is one entry of the notice board. Updated uses YYYY-MM-DD.
type NoticeSeed struct {
	ID       int    `yaml:"id"`
	Space    string `yaml:"space"`
	Summary  string `yaml:"summary"`
	Updated  string `yaml:"updated"`
	Creator  string `yaml:"creator"`
	Priority string `yaml:"priority"`
	Category string `yaml:"category"`
	Body     string `yaml:"body,omitempty"`
}

type OrganizationSeed struct {
	ID        int    `yaml:"id"`
	Category  string `yaml:"category"`
	Chonggwal string `yaml:"chonggwal"`
	Hyundai   string `yaml:"hyundai"`
	Kia       string `yaml:"kia"`
	Group     string `yaml:"group"`
}

type AlertDocument struct {
	Rule     string `yaml:"rule,omitempty"`
	Schedule string `yaml:"schedule,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
	EmailTo  string `yaml:"email_to,omitempty"`
}

type WorkflowDocument struct {
	AssigneeMessage string `yaml:"assignee_message,omitempty"`
	CreateComment   string `yaml:"create_comment,omitempty"`
}

// LoadDocument reads and validates the YAML document at path.
func LoadDocument(path string) (*Document, error) {
	doc := &Document{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc.applyDefaults()
			return doc, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse hmg-index document: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// DefaultDocument is the document used when no file is present.
func DefaultDocument() *Document {
	doc := &Document{}
	doc.applyDefaults()
	return doc
}

func (d *Document) applyDefaults() {
	if d.App.Name == "" {
		d.App.Name = "HMG Index"
	}
	if d.App.Version == "" {
		d.App.Version = "1.1.10"
	}
	if d.App.Greeting == "" {
		d.App.Greeting = "HMG Index Data Loaded Successfully!"
	}
	if d.Workflow.AssigneeMessage == "" {
		d.Workflow.AssigneeMessage = "The issue must have an assignee before transitioning"
	}
}

// Validate checks seed data for duplicate ids and malformed dates.
func (d *Document) Validate() error {
	seenNotices := map[int]bool{}
	for i, n := range d.Notices {
		if n.ID <= 0 {
			return fmt.Errorf("notice %d: id must be positive", i)
		}
		if seenNotices[n.ID] {
			return fmt.Errorf("notice %d: duplicate id %d", i, n.ID)
		}
		seenNotices[n.ID] = true
		if strings.TrimSpace(n.Summary) == "" {
			return fmt.Errorf("notice %d: summary is required", i)
		}
		if _, err := time.Parse(time.DateOnly, n.Updated); err != nil {
			return fmt.Errorf("notice %d: updated must be YYYY-MM-DD: %w", i, err)
		}
	}

	seenRows := map[int]bool{}
	for i, row := range d.Organization {
		if row.ID <= 0 {
			return fmt.Errorf("organization row %d: id must be positive", i)
		}
		if seenRows[row.ID] {
			return fmt.Errorf("organization row %d: duplicate id %d", i, row.ID)
		}
		seenRows[row.ID] = true
	}

	if d.Alert.Timezone != "" {
		if _, err := time.LoadLocation(d.Alert.Timezone); err != nil {
			return fmt.Errorf("alert: invalid timezone: %w", err)
		}
	}
	return nil
}

// MergeAlert fills unset environment alert settings from the document.
// Environment values win.
func (d *Document) MergeAlert(env AlertEnvConfig) AlertEnvConfig {
	merged := env
	if d == nil {
		return merged
	}
	if merged.Rule == "" {
		merged.Rule = d.Alert.Rule
	}
	if merged.Schedule == "" {
		merged.Schedule = d.Alert.Schedule
	}
	if merged.Timezone == "" {
		merged.Timezone = d.Alert.Timezone
	}
	if merged.EmailTo == "" {
		merged.EmailTo = d.Alert.EmailTo
	}
	return merged
}
