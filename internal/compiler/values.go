package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Field accessors for optional scalar and list fields. A missing field yields
// the zero value; a field of the wrong kind is a CompileError at its position.

func optString(v cue.Value, field, path string) (string, error) {
	f := v.LookupPath(cue.MakePath(cue.Str(field)))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: joinPath(path, field), Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

func optBool(v cue.Value, field, path string) (bool, error) {
	f := v.LookupPath(cue.MakePath(cue.Str(field)))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, &CompileError{Field: joinPath(path, field), Message: "must be a bool", Pos: f.Pos()}
	}
	return b, nil
}

func optInt(v cue.Value, field, path string) (int, error) {
	f := v.LookupPath(cue.MakePath(cue.Str(field)))
	if !f.Exists() {
		return 0, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, &CompileError{Field: joinPath(path, field), Message: "must be an integer", Pos: f.Pos()}
	}
	return int(n), nil
}

func optStrings(v cue.Value, field, path string) ([]string, error) {
	f := v.LookupPath(cue.MakePath(cue.Str(field)))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: joinPath(path, field), Message: "must be a list of strings", Pos: f.Pos()}
	}
	var out []string
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", joinPath(path, field), i),
				Message: "must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// fields iterates the regular fields of the struct at v.field, calling fn
// with each label and value. A missing field is not an error.
func fields(v cue.Value, field, path string, fn func(label string, fv cue.Value) error) error {
	f := v.LookupPath(cue.MakePath(cue.Str(field)))
	if !f.Exists() {
		return nil
	}
	iter, err := f.Fields()
	if err != nil {
		return &CompileError{Field: joinPath(path, field), Message: "must be a struct", Pos: f.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// elems iterates the elements of v, which may be a single struct or a list
// of structs.
func elems(v cue.Value, path string, fn func(path string, ev cue.Value) error) error {
	if v.IncompleteKind() != cue.ListKind {
		return fn(path, v)
	}
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(fmt.Sprintf("%s[%d]", path, i), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
