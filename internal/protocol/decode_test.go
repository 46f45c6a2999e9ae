package protocol_test

import (
	"strings"
	"testing"

	"terrania.game/internal/protocol"
)

func TestDecoder_AcceptsSamples(t *testing.T) {
	d, err := protocol.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	samples := []string{
		`{"type":"START_GAME","protocol_version":"1.0","players":[{"name":"Ada","icon":"crown","color":"red"},{"name":"Bo"}]}`,
		`{"type":"SELECT_REGION","region_id":7}`,
		`{"type":"PERFORM_ACTION","id":"a1","action":"claim","region_id":3}`,
		`{"type":"PERFORM_ACTION","action":"build","region_id":3,"structure":"well"}`,
		`{"type":"PERFORM_ACTION","action":"explore"}`,
		`{"type":"END_TURN"}`,
		`{"type":"PROPOSE_NEGOTIATION","target":1,"offer":{"resources":{"gold":2}},"request":{"resources":{"wood":1},"regions":[7]}}`,
		`{"type":"RESPOND_NEGOTIATION","accept":true}`,
		`{"type":"SAVE","path":"/tmp/x.save.zst"}`,
	}
	for _, s := range samples {
		req, err := d.Decode([]byte(s))
		if err != nil {
			t.Fatalf("decode %s: %v", s, err)
		}
		if req.Type == "" {
			t.Fatalf("decode %s: empty type", s)
		}
	}

	req, err := d.Decode([]byte(`{"type":"PROPOSE_NEGOTIATION","target":1,"offer":{"resources":{"gold":2}},"request":{"regions":[7]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Target == nil || *req.Target != 1 || req.Offer.Resources["gold"] != 2 || len(req.Request.Regions) != 1 {
		t.Fatalf("unexpected decode: %+v", req)
	}
}

func TestDecoder_RejectsMalformed(t *testing.T) {
	d, err := protocol.NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	cases := map[string]string{
		"not json":           `{"type":`,
		"unknown type":       `{"type":"FLY"}`,
		"bad version":        `{"type":"END_TURN","protocol_version":"0.1"}`,
		"one player":         `{"type":"START_GAME","players":[{"name":"solo"}]}`,
		"unknown action":     `{"type":"PERFORM_ACTION","action":"raid"}`,
		"build no structure": `{"type":"PERFORM_ACTION","action":"build","region_id":1}`,
		"negative region":    `{"type":"SELECT_REGION","region_id":-1}`,
		"unknown resource":   `{"type":"PROPOSE_NEGOTIATION","target":1,"offer":{"resources":{"mana":1}},"request":{}}`,
		"negative amount":    `{"type":"PROPOSE_NEGOTIATION","target":1,"offer":{"resources":{"gold":-1}},"request":{}}`,
		"duplicate regions":  `{"type":"PROPOSE_NEGOTIATION","target":1,"offer":{"regions":[2,2]},"request":{}}`,
		"missing accept":     `{"type":"RESPOND_NEGOTIATION"}`,
		"extra field":        `{"type":"END_TURN","force":true}`,
	}
	for name, s := range cases {
		if _, err := d.Decode([]byte(s)); err == nil {
			t.Fatalf("%s: expected rejection for %s", name, s)
		} else if strings.TrimSpace(err.Error()) == "" {
			t.Fatalf("%s: empty error", name)
		}
	}
}
