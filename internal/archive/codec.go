package archive

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// encodeValue flattens a trait value to a (type tag, text) pair for storage.
func encodeValue(v cty.Value) (string, string, error) {
	if v.IsNull() {
		return "null", "", nil
	}
	switch v.Type() {
	case cty.Number:
		return "number", v.AsBigFloat().Text('g', -1), nil
	case cty.String:
		return "string", v.AsString(), nil
	case cty.Bool:
		if v.True() {
			return "bool", "true", nil
		}
		return "bool", "false", nil
	default:
		return "", "", fmt.Errorf("cannot archive value of type %s", v.Type().FriendlyName())
	}
}

// decodeValue restores a trait value from its stored (type tag, text) pair.
func decodeValue(kind, text string) (cty.Value, error) {
	switch kind {
	case "null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "number":
		f, _, err := big.ParseFloat(text, 10, 512, big.ToNearestEven)
		if err != nil {
			return cty.NilVal, fmt.Errorf("archived number %q: %w", text, err)
		}
		return cty.NumberVal(f), nil
	case "string":
		return cty.StringVal(text), nil
	case "bool":
		return cty.BoolVal(text == "true"), nil
	default:
		return cty.NilVal, fmt.Errorf("unknown archived value kind: %s", kind)
	}
}
