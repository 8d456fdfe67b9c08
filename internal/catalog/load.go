package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content file names inside a data directory. tuning.yaml is optional.
const (
	SkillsFile   = "skills.yaml"
	ItemsFile    = "items.yaml"
	ProgramsFile = "programs.yaml"
	TargetsFile  = "targets.yaml"
	ICEFile      = "ice.yaml"
	UpgradesFile = "upgrades.yaml"
	MissionsFile = "missions.yaml"
	EventsFile   = "events.yaml"
	TuningFile   = "tuning.yaml"
)

type skillsDoc struct {
	Compute struct {
		Denominator float64 `yaml:"denominator"`
	} `yaml:"compute"`
	Skills []Skill `yaml:"skills"`
}

type itemsDoc struct {
	Decks    []Item `yaml:"decks"`
	Consoles []Item `yaml:"consoles"`
	Implants []Item `yaml:"implants"`
	Mods     []Item `yaml:"mods"`
	Tools    []Item `yaml:"tools"`
}

type programsDoc struct {
	Programs []Program `yaml:"programs"`
}

type targetsDoc struct {
	Targets []Target `yaml:"targets"`
}

type iceDoc struct {
	ICE map[string]ICE `yaml:"ice"`
}

type upgradesDoc struct {
	Branches []Branch `yaml:"branches"`
}

type missionsDoc struct {
	Missions map[string][]MissionStep `yaml:"missions"`
}

type eventsDoc struct {
	Events []EventDef `yaml:"events"`
}

// Load reads every content table from dir.
func Load(dir string) (*Catalog, error) {
	c, err := LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", dir, err)
	}
	return c, nil
}

// LoadFS reads every content table from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{Tuning: DefaultTuning()}

	var skills skillsDoc
	if err := decodeFile(fsys, SkillsFile, &skills); err != nil {
		return nil, err
	}
	c.Skills = skills.Skills
	c.Denominator = skills.Compute.Denominator

	var items itemsDoc
	if err := decodeFile(fsys, ItemsFile, &items); err != nil {
		return nil, err
	}
	c.Items = flattenItems(items)

	var programs programsDoc
	if err := decodeFile(fsys, ProgramsFile, &programs); err != nil {
		return nil, err
	}
	c.Programs = programs.Programs

	var targets targetsDoc
	if err := decodeFile(fsys, TargetsFile, &targets); err != nil {
		return nil, err
	}
	c.Targets = targets.Targets

	var ice iceDoc
	if err := decodeFile(fsys, ICEFile, &ice); err != nil {
		return nil, err
	}
	c.ICE = ice.ICE

	var upgrades upgradesDoc
	if err := decodeFile(fsys, UpgradesFile, &upgrades); err != nil {
		return nil, err
	}
	c.Branches = upgrades.Branches

	var missions missionsDoc
	if err := decodeFile(fsys, MissionsFile, &missions); err != nil {
		return nil, err
	}
	c.Missions = missions.Missions

	var events eventsDoc
	if err := decodeFile(fsys, EventsFile, &events); err != nil {
		return nil, err
	}
	c.Events = events.Events

	if err := decodeFile(fsys, TuningFile, &c.Tuning); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := c.Reindex(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeFile(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && name != TuningFile {
			return fmt.Errorf("%w: %s: %w", ErrMissingData, name, err)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			if name == TuningFile {
				return nil
			}
			return fmt.Errorf("%w: %s is empty", ErrMissingData, name)
		}
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func flattenItems(doc itemsDoc) []Item {
	groups := []struct {
		typ   ItemType
		items []Item
	}{
		{ItemDeck, doc.Decks},
		{ItemConsole, doc.Consoles},
		{ItemImplant, doc.Implants},
		{ItemMod, doc.Mods},
		{ItemTool, doc.Tools},
	}
	var out []Item
	for _, g := range groups {
		for _, it := range g.items {
			if strings.TrimSpace(string(it.Type)) == "" {
				it.Type = g.typ
			}
			out = append(out, it)
		}
	}
	return out
}
