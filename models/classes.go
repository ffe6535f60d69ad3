package models

import (
	"fmt"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/models/postprocess"
)

// BackgroundLabel is the label of class id 0 in every class map.
const BackgroundLabel = "background"

// ClassMap is a fixed mapping from class id to label, bound to one trained model.
type ClassMap struct {
	// Name identifies the class set.
	Name string
	// labels[id] is the label of class id.
	labels []string
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// NewClassMap builds a class map with background at id 0 followed by labels.
func NewClassMap(name string, labels ...string) *ClassMap {
	m := &ClassMap{Name: name, labels: append([]string{BackgroundLabel}, labels...)}
	m.nameToIdx = make(map[string]int, len(m.labels))
	for i, l := range m.labels {
		m.nameToIdx[l] = i
	}
	return m
}

// Len returns the number of classes including background.
func (m *ClassMap) Len() int {
	return len(m.labels)
}

// Label returns the label of a class id.
func (m *ClassMap) Label(id int) (string, error) {
	if id < 0 || id >= len(m.labels) {
		return "", fmt.Errorf("class id %d out of range for class map %q", id, m.Name)
	}
	return m.labels[id], nil
}

// LabelOr returns the label of id, or "class <id>" when id is out of range.
func (m *ClassMap) LabelOr(id int) string {
	if l, err := m.Label(id); err == nil {
		return l
	}
	return fmt.Sprintf("class %d", id)
}

// ID returns the class id of a label.
func (m *ClassMap) ID(label string) (int, error) {
	idx, ok := m.nameToIdx[label]
	if !ok {
		return -1, fmt.Errorf("label %q not found in class map %q", label, m.Name)
	}
	return idx, nil
}

// Labels returns a copy of every label in id order.
func (m *ClassMap) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Annotate labels every instance of pred, in prediction order.
func (m *ClassMap) Annotate(pred postprocess.Prediction) []common.BoundingBox {
	out := make([]common.BoundingBox, 0, len(pred.Instances))
	for _, inst := range pred.Instances {
		out = append(out, common.BoundingBox{
			Label:      m.LabelOr(inst.Class),
			ClassID:    inst.Class,
			Confidence: inst.Score,
			X1:         inst.Box.X1,
			Y1:         inst.Box.Y1,
			X2:         inst.Box.X2,
			Y2:         inst.Box.Y2,
		})
	}
	return out
}

// Class maps of the published sample models.
var (
	// PennFudanClasses is the PennFudan pedestrian class map.
	PennFudanClasses = NewClassMap("pennfudan", "pedestrian")

	// PetsClasses is the Oxford-IIIT Pets breed class map.
	PetsClasses = NewClassMap("pets",
		"abyssinian",
		"american_bulldog",
		"american_pit_bull_terrier",
		"basset_hound",
		"beagle",
		"bengal",
		"birman",
		"bombay",
		"boxer",
		"british_shorthair",
		"chihuahua",
		"egyptian_mau",
		"english_cocker_spaniel",
		"english_setter",
		"german_shorthaired",
		"great_pyrenees",
		"havanese",
		"japanese_chin",
		"keeshond",
		"leonberger",
		"maine_coon",
		"miniature_pinscher",
		"newfoundland",
		"persian",
		"pomeranian",
		"pug",
		"ragdoll",
		"russian_blue",
		"saint_bernard",
		"samoyed",
		"scottish_terrier",
		"shiba_inu",
		"siamese",
		"sphynx",
		"staffordshire_bull_terrier",
		"wheaten_terrier",
		"yorkshire_terrier",
	)

	// FridgeClasses is the fridge objects class map.
	FridgeClasses = NewClassMap("fridge", "carton", "milk_bottle", "can", "water_bottle")

	// RaccoonClasses is the raccoon class map.
	RaccoonClasses = NewClassMap("raccoon", "raccoon")
)

// KnownClassMaps indexes the built-in class maps by name.
var KnownClassMaps = map[string]*ClassMap{
	PennFudanClasses.Name: PennFudanClasses,
	PetsClasses.Name:      PetsClasses,
	FridgeClasses.Name:    FridgeClasses,
	RaccoonClasses.Name:   RaccoonClasses,
}

// LookupClassMap returns a built-in class map by name.
func LookupClassMap(name string) (*ClassMap, error) {
	m, ok := KnownClassMaps[name]
	if !ok {
		return nil, fmt.Errorf("unknown class map %q", name)
	}
	return m, nil
}
