package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://terrania.game/schemas/"

var requestSchemas = map[string]string{
	TypeStartGame:          "start_game.schema.json",
	TypeSelectRegion:       "select_region.schema.json",
	TypePerformAction:      "perform_action.schema.json",
	TypeEndTurn:            "end_turn.schema.json",
	TypeProposeNegotiation: "propose_negotiation.schema.json",
	TypeRespondNegotiation: "respond_negotiation.schema.json",
	TypeSave:               "save.schema.json",
}

// Decoder validates request lines against the embedded JSON schemas
// before decoding them.
type Decoder struct {
	schemas map[string]*jsonschema.Schema
}

func NewDecoder() (*Decoder, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}
	d := &Decoder{schemas: make(map[string]*jsonschema.Schema, len(requestSchemas))}
	for typ, name := range requestSchemas {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		d.schemas[typ] = s
	}
	return d, nil
}

// Decode parses one request. Errors are reported as E_BAD_REQUEST.
func (d *Decoder) Decode(b []byte) (Request, error) {
	var req Request
	base, err := DecodeBase(b)
	if err != nil {
		return req, fmt.Errorf("bad json: %w", err)
	}
	s, ok := d.schemas[base.Type]
	if !ok {
		return req, fmt.Errorf("unknown request type %q", base.Type)
	}
	if base.ProtocolVersion != "" && base.ProtocolVersion != Version {
		return req, fmt.Errorf("unsupported protocol_version %q", base.ProtocolVersion)
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return req, fmt.Errorf("bad json: %w", err)
	}
	if err := s.Validate(raw); err != nil {
		return req, fmt.Errorf("%s: %w", base.Type, err)
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("%s: %w", base.Type, err)
	}
	return req, nil
}
