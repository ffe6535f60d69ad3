package config

import (
	"fmt"
	"strings"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/models"
	"github.com/nvr-ai/detect-demo/models/model"
)

// Published weight archives of the sample models.
const (
	PennFudanWeightsURL = "https://mantisshrimp-models.s3.us-east-2.amazonaws.com/pennfundan_maskrcnn_resnet50fpn.zip"
	PetsWeightsURL      = "https://github.com/airctic/streamlitshrimp/releases/download/pets_faster_resnetfpn50/pets_faster_resnetfpn50.zip"
)

// DatasetConfig is one selectable dataset/model pair as written in the config file.
type DatasetConfig struct {
	// Name is the label shown in the selector.
	Name string `json:"name" yaml:"name"`
	// Kind is the architecture: mask_rcnn, faster_rcnn or efficientdet.
	Kind string `json:"kind" yaml:"kind"`
	// Classes names a built-in class map.
	Classes string `json:"classes" yaml:"classes"`
	// WeightsURL is where the weights are downloaded from. Entries without one are not offered.
	WeightsURL string `json:"weightsUrl" yaml:"weightsUrl"`
}

// Dataset is a resolved, ready-to-load dataset/model pair.
type Dataset struct {
	Name       string
	Kind       model.Kind
	Classes    *models.ClassMap
	WeightsURL string
}

// DefaultDatasets returns the four published selector entries. Fridge Objects and Raccoon
// ship without weights and stay hidden until a weights URL is configured.
func DefaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{Name: "PennFundan", Kind: string(model.KindMaskRCNN), Classes: models.PennFudanClasses.Name, WeightsURL: PennFudanWeightsURL},
		{Name: "PETS", Kind: string(model.KindFasterRCNN), Classes: models.PetsClasses.Name, WeightsURL: PetsWeightsURL},
		{Name: "Fridge Objects", Kind: string(model.KindEfficientDet), Classes: models.FridgeClasses.Name},
		{Name: "Raccoon", Kind: string(model.KindEfficientDet), Classes: models.RaccoonClasses.Name},
	}
}

// Table is the static set of datasets offered to the user, in selector order.
type Table struct {
	entries []Dataset
	byName  map[string]int
}

// NewTable resolves dataset configs into a table.
//
// Entries without a weights URL are skipped. Names must be unique.
//
// Arguments:
//   - configs: The dataset entries.
//
// Returns:
//   - *Table: The table.
//   - error: A ConfigurationError for an unknown kind or class map, a duplicate name,
//     or a table with no loadable entry.
func NewTable(configs []DatasetConfig) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(configs))}
	for _, c := range configs {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, common.ConfigurationError("datasets", fmt.Errorf("dataset without a name"))
		}
		if c.WeightsURL == "" {
			continue
		}
		if _, dup := t.byName[name]; dup {
			return nil, common.ConfigurationError("datasets", fmt.Errorf("duplicate dataset %q", name))
		}
		kind, err := model.ParseKind(c.Kind)
		if err != nil {
			return nil, common.ConfigurationError("datasets", fmt.Errorf("dataset %q: %w", name, err))
		}
		classes, err := models.LookupClassMap(c.Classes)
		if err != nil {
			return nil, common.ConfigurationError("datasets", fmt.Errorf("dataset %q: %w", name, err))
		}
		t.byName[name] = len(t.entries)
		t.entries = append(t.entries, Dataset{Name: name, Kind: kind, Classes: classes, WeightsURL: c.WeightsURL})
	}
	if len(t.entries) == 0 {
		return nil, common.ConfigurationError("datasets", fmt.Errorf("no dataset has a weights url"))
	}
	return t, nil
}

// Lookup returns the dataset named name.
//
// An unknown name is a ConfigurationError; there is no fallback entry.
func (t *Table) Lookup(name string) (Dataset, error) {
	i, ok := t.byName[name]
	if !ok {
		return Dataset{}, common.ConfigurationError("select dataset", fmt.Errorf("unknown dataset %q", name))
	}
	return t.entries[i], nil
}

// Names returns the dataset names in selector order.
func (t *Table) Names() []string {
	out := make([]string, len(t.entries))
	for i, d := range t.entries {
		out[i] = d.Name
	}
	return out
}

// Datasets returns every entry in selector order.
func (t *Table) Datasets() []Dataset {
	return append([]Dataset(nil), t.entries...)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}
