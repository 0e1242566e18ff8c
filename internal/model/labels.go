package model

import (
	"fmt"
	"sort"
)

type labelSpec struct {
	Classes []string `json:"classes"`
}

// LabelEncoder maps model class indices back to tool names. The mapping
// is fixed at load time and must be a bijection onto the benchmark
// runner's tool set.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("model: label encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("model: empty label at index %d", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("model: duplicate label %q", c)
		}
		index[c] = i
	}
	return &LabelEncoder{
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

// Decode maps a class index to its tool name.
func (l *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(l.classes) {
		return "", fmt.Errorf("model: class index %d outside %d labels", idx, len(l.classes))
	}
	return l.classes[idx], nil
}

// Encode maps a tool name to its class index.
func (l *LabelEncoder) Encode(name string) (int, error) {
	idx, ok := l.index[name]
	if !ok {
		return 0, fmt.Errorf("model: unknown label %q", name)
	}
	return idx, nil
}

// Classes returns a copy of the label list in index order.
func (l *LabelEncoder) Classes() []string {
	return append([]string(nil), l.classes...)
}

// Len reports the number of classes.
func (l *LabelEncoder) Len() int {
	return len(l.classes)
}

// CoversExactly verifies the labels form a bijection onto tools.
func (l *LabelEncoder) CoversExactly(tools []string) error {
	if len(tools) != len(l.classes) {
		return fmt.Errorf("model: %d labels for %d tools", len(l.classes), len(tools))
	}
	want := append([]string(nil), tools...)
	have := l.Classes()
	sort.Strings(want)
	sort.Strings(have)
	for i := range want {
		if want[i] != have[i] {
			return fmt.Errorf("model: labels %v do not cover tools %v", l.classes, tools)
		}
	}
	return nil
}
