package vocab

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/hilal/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/months.yaml
var monthsYAML []byte

var (
	monthsOnce sync.Once
	monthIndex map[string]int
)

func loadMonths() map[string]int {
	monthsOnce.Do(func() {
		idx, err := parseMonths(monthsYAML)
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded month table: %v", err))
		}
		monthIndex = idx
	})
	return monthIndex
}

func parseMonths(data []byte) (map[string]int, error) {
	var raw map[int][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse months: %w", err)
	}

	idx := make(map[string]int)
	for _, m := range model.HijriMonths {
		idx[Fold(m.Name)] = m.Number
	}
	for n, names := range raw {
		if !model.ValidMonth(n) {
			return nil, fmt.Errorf("parse months: month %d out of range", n)
		}
		for _, name := range names {
			idx[Fold(name)] = n
		}
	}
	return idx, nil
}

// NormalizeHijriMonth resolves a month number ("10"), page code ("SHW"),
// or name in any common transliteration ("Shawwal", "Dhul Qi'dah") to
// its month number.
func NormalizeHijriMonth(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, model.ValidMonth(n)
	}
	if len(s) == 3 {
		if n, ok := model.MonthByCode(s); ok {
			return n, true
		}
	}
	n, ok := loadMonths()[Fold(s)]
	return n, ok
}
