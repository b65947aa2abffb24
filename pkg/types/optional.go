package types

import "encoding/json"

// Optional is a JSON field that distinguishes "absent" from "present with
// null". PATCH bodies need the distinction: {"bound_client_id": null} must
// clear the binding while an omitted field leaves it untouched.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Some builds a set Optional holding the provided value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Value: &value}
}

// Null builds a set Optional holding JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}
