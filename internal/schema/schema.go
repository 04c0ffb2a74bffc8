package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/teemow/focusmate/internal/domain"
)

// baseURL is only an identifier for compiled resources; nothing is fetched.
const baseURL = "https://focusmate.local/schemas/"

// Schema is the closed input schema of one tool. It is generated from the
// tool's argument struct once and is safe for concurrent use.
type Schema struct {
	name      string
	raw       json.RawMessage
	reflected *invopop.Schema
	compiled  *jsonschema.Schema
	required  map[string]bool
}

// Reflect builds the schema for args, which must be a struct value whose
// jsonschema tags declare the constraints.
func Reflect(name string, args any) (*Schema, error) {
	reflector := &invopop.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}
	reflected := reflector.Reflect(args)

	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}

	url := baseURL + name + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema for %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", name, err)
	}

	required := make(map[string]bool, len(reflected.Required))
	for _, field := range reflected.Required {
		required[field] = true
	}

	return &Schema{
		name:      name,
		raw:       raw,
		reflected: reflected,
		compiled:  compiled,
		required:  required,
	}, nil
}

// MustReflect is like Reflect but panics on error. Use it for schemas built
// from static types at init time.
func MustReflect(name string, args any) *Schema {
	s, err := Reflect(name, args)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the tool name the schema belongs to.
func (s *Schema) Name() string {
	return s.name
}

// Raw returns the JSON Schema document advertised to clients.
func (s *Schema) Raw() json.RawMessage {
	out := make(json.RawMessage, len(s.raw))
	copy(out, s.raw)
	return out
}

// Decode validates raw against the schema and, only if every constraint
// holds, decodes it into dst with declared defaults applied. All violations
// are reported together in a single *domain.Error of KindValidation.
func (s *Schema) Decode(raw map[string]any, dst any) error {
	args, err := s.normalize(raw)
	if err != nil {
		return domain.NewValidationError(err.Error())
	}

	if err := s.compiled.Validate(args); err != nil {
		return domain.NewValidationError(describe(err))
	}

	s.applyDefaults(args)

	decoder, err := newDecoder(dst)
	if err != nil {
		return fmt.Errorf("failed to create decoder for %s: %w", s.name, err)
	}
	if err := decoder.Decode(args); err != nil {
		return domain.NewValidationError(s.decodeProblems(args, dst))
	}
	return nil
}

func newDecoder(dst any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      dst,
		ErrorUnused: true,
	})
}

// decodeProblems finds the fields that failed to decode by decoding each one
// alone into a fresh value of dst's type. The decoder's own error text is
// never shown to callers.
func (s *Schema) decodeProblems(args map[string]any, dst any) string {
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var msgs []string
	for _, key := range keys {
		fresh := reflect.New(reflect.TypeOf(dst).Elem()).Interface()
		decoder, err := newDecoder(fresh)
		if err != nil {
			continue
		}
		if err := decoder.Decode(map[string]any{key: args[key]}); err != nil {
			msgs = append(msgs, key+": "+s.typeProblem(key))
		}
	}
	if len(msgs) == 0 {
		return "arguments: could not be decoded"
	}
	return strings.Join(msgs, "; ")
}

func (s *Schema) typeProblem(key string) string {
	var typ string
	if s.reflected.Properties != nil {
		if prop, ok := s.reflected.Properties.Get(key); ok && prop != nil {
			typ = prop.Type
		}
	}
	switch typ {
	case "integer":
		return "must be an integer"
	case "number":
		return "must be a number"
	case "string":
		return "must be a string"
	case "boolean":
		return "must be a boolean"
	default:
		return "has an invalid value"
	}
}

// normalize converts raw into plain JSON values and trims every string.
// Optional strings that are empty after trimming are treated as absent.
func (s *Schema) normalize(raw map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}

	for key, value := range args {
		str, ok := value.(string)
		if !ok {
			continue
		}
		str = strings.TrimSpace(str)
		if str == "" && !s.required[key] {
			delete(args, key)
			continue
		}
		args[key] = str
	}
	return args, nil
}

func (s *Schema) applyDefaults(args map[string]any) {
	if s.reflected.Properties == nil {
		return
	}
	for pair := s.reflected.Properties.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := args[pair.Key]; ok || pair.Value.Default == nil {
			continue
		}
		args[pair.Key] = pair.Value.Default
	}
}

// describe flattens a validation error tree into "field: problem" pairs,
// sorted so the same input always yields the same message.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	collectLeaves(ve, &msgs)
	sort.Strings(msgs)
	return strings.Join(slices.Compact(msgs), "; ")
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		field := strings.TrimLeft(ve.InstanceLocation, "#/")
		if field == "" {
			field = "arguments"
		}
		*out = append(*out, field+": "+ve.Message)
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}
