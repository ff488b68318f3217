package tasks

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
	"taskgateway/internal/util/jsonutil"
)

// contact keeps the original object bytes so unknown fields and key order
// survive the sort.
type contact struct {
	raw   json.RawMessage
	last  string
	first string
}

func decodeContacts(data []byte) ([]contact, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]contact, 0, len(items))
	for i, item := range items {
		var names map[string]any
		if err := json.Unmarshal(item, &names); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, contact{raw: item, last: nameField(names, "last_name"), first: nameField(names, "first_name")})
	}
	return out, nil
}

func nameField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// sortContacts orders by last_name then first_name. Ties keep input order.
func sortContacts(cs []contact) {
	slices.SortStableFunc(cs, func(a, b contact) int {
		return cmp.Or(cmp.Compare(a.last, b.last), cmp.Compare(a.first, b.first))
	})
}

func encodeContacts(cs []contact) ([]byte, error) {
	raws := make([]json.RawMessage, len(cs))
	for i, c := range cs {
		raws[i] = c.raw
	}
	return jsonutil.MarshalNoEscape(raws)
}

type sortContactsOp struct{ host Host }

func newSortContacts(h Host) *sortContactsOp { return &sortContactsOp{host: h} }

func (o *sortContactsOp) Spec() operation.Spec {
	return operation.Spec{
		Name:        "sort_contacts",
		Description: "Sort contacts by last_name and first_name",
		Params: []operation.Param{
			pathParam("input_file_path", "Path to input contacts JSON"),
			outputParam("output_file_path", "Path to output sorted JSON"),
		},
	}
}

func (o *sortContactsOp) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	in, err := args.RequireString("input_file_path")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file_path")
	if err != nil {
		return nil, apperr.Invalid("invalid output filename")
	}
	if _, err := o.host.FS.Resolve(in); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}

	data, err := o.host.FS.SafeReadFile(in)
	if err != nil {
		return nil, err
	}
	cs, err := decodeContacts(data)
	if err != nil {
		return nil, apperr.Invalid("Invalid JSON in file '%s': %v", in, err)
	}
	sortContacts(cs)
	encoded, err := encodeContacts(cs)
	if err != nil {
		return nil, apperr.Internal(err, "encode contacts")
	}
	if err := o.host.FS.SafeWriteFile(out, encoded); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}
