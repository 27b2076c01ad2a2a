package tint

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Control represents an editable parameter of a filter.
// A successful ChangeValue takes effect on the next Process call of the owning filter.
type Control interface {
	// Display/human readable name and description.
	Describe() (name, description string)
	// ActualValue returns the current value of the control.
	ActualValue() any
	// ChangeValue attempts to update the ActualValue to newValue.
	ChangeValue(newValue any) error
}

var errNoOnChange = errors.New("control has no OnChange callback")

// ControlOrdered is a bounded numeric or string parameter, i.e: a slider.
type ControlOrdered[T cmp.Ordered] struct {
	Name        string
	Description string
	Value       T
	Min         T
	Max         T
	Step        T
	OnChange    func(T) error
}

func (co *ControlOrdered[T]) Describe() (name, description string) {
	return co.Name, co.Description
}
func (co *ControlOrdered[T]) ActualValue() any { return co.Value }
func (co *ControlOrdered[T]) ChangeValue(newValue any) error {
	v, ok := newValue.(T)
	if !ok {
		return fmt.Errorf("%s: new value %T not of type %T", co.Name, newValue, co.Value)
	}
	if v != v {
		return fmt.Errorf("%s: new value is NaN", co.Name)
	} else if v < co.Min || v > co.Max {
		return fmt.Errorf("%s: new value %v exceeds limits %v..%v", co.Name, v, co.Min, co.Max)
	} else if co.OnChange == nil {
		return errNoOnChange
	}
	err := co.OnChange(v)
	if err == nil {
		co.Value = v
	}
	return err
}

type integer interface {
	~int | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

type enum interface {
	integer
	fmt.Stringer
}

// ControlEnum maps to dropdown kind of list.
type ControlEnum[T enum] struct {
	Name        string
	Description string
	Value       T
	ValidValues []T
	OnChange    func(T) error
}

func (ce *ControlEnum[T]) Describe() (name, description string) {
	return ce.Name, ce.Description
}
func (ce *ControlEnum[T]) ActualValue() any {
	return ce.Value
}

// ChangeValue accepts either a T or the String form of one of ValidValues.
func (ce *ControlEnum[T]) ChangeValue(newValue any) error {
	var v T
	switch nv := newValue.(type) {
	case T:
		v = nv
	case string:
		idx := slices.IndexFunc(ce.ValidValues, func(e T) bool { return strings.EqualFold(e.String(), nv) })
		if idx < 0 {
			return fmt.Errorf("%s: %q is not one of %v", ce.Name, nv, ce.ValidValues)
		}
		v = ce.ValidValues[idx]
	default:
		return fmt.Errorf("%s: new value %T not of type %T", ce.Name, newValue, ce.Value)
	}
	if !slices.Contains(ce.ValidValues, v) {
		return fmt.Errorf("%s: value %v of %T not valid", ce.Name, v, v)
	} else if ce.OnChange == nil {
		return errNoOnChange
	}
	err := ce.OnChange(v)
	if err == nil {
		ce.Value = v
	}
	return err
}

// FindControl returns the control in ctrls whose name matches name, ignoring case.
func FindControl(ctrls []Control, name string) (Control, bool) {
	for _, c := range ctrls {
		n, _ := c.Describe()
		if strings.EqualFold(n, name) {
			return c, true
		}
	}
	return nil, false
}
