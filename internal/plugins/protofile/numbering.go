package protofile

import (
	"cmp"
	"errors"
	"hash/fnv"
	"slices"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	maxNumber     = 31767
	reservedStart = 19000
	reservedEnd   = 19999
)

var errNumbersExhausted = errors.New("field number space exhausted")

func numberFields(fields []*protobuilder.FieldBuilder) error {
	names := make([]string, len(fields))
	for i, fb := range fields {
		names[i] = string(fb.Name())
	}
	numbers, err := hashNumbers(names)
	if err != nil {
		return err
	}
	for i, fb := range fields {
		fb.SetNumber(protoreflect.FieldNumber(numbers[i]))
	}
	return nil
}

func numberEnumValues(values []*protobuilder.EnumValueBuilder) error {
	names := make([]string, len(values))
	for i, evb := range values {
		names[i] = string(evb.Name())
	}
	numbers, err := hashNumbers(names)
	if err != nil {
		return err
	}
	for i, evb := range values {
		evb.SetNumber(protoreflect.EnumNumber(numbers[i]))
	}
	return nil
}

// hashNumbers derives stable tag numbers from names so that adding a field
// never renumbers the others. A name starts at FNV-32a(name) % 31767 + 1 and
// probes linearly past collisions and the reserved 19000-19999 block. Names
// are placed in sorted order so collisions resolve the same way every time.
func hashNumbers(names []string) ([]int, error) {
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return cmp.Compare(names[a], names[b]) })

	out := make([]int, len(names))
	used := make(map[int]bool, len(names))
	for _, idx := range order {
		start := int(fnv32(names[idx])%maxNumber) + 1
		n := start
		for probes := 0; ; probes++ {
			if probes > maxNumber {
				return nil, errNumbersExhausted
			}
			if n >= reservedStart && n <= reservedEnd {
				n = reservedEnd + 1
			}
			if n > maxNumber {
				n = 1
			}
			if !used[n] {
				break
			}
			n++
		}
		used[n] = true
		out[idx] = n
	}
	return out, nil
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
