package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stateview/internal/document"
	"github.com/roach88/stateview/internal/ir"
)

// blockFile is the on-disk form of a block sequence. JSON files use the
// same keys.
type blockFile struct {
	Blocks []blockSpec `yaml:"blocks"`
}

type blockSpec struct {
	Height      int64               `yaml:"height"`
	Hash        string              `yaml:"hash"`
	Quorum      []map[string]string `yaml:"quorum"`
	Transitions []transitionSpec    `yaml:"transitions"`
}

type transitionSpec struct {
	StateTransitionHash       string         `yaml:"stHash"`
	StateTransitionPacketHash string         `yaml:"stPacketHash"`
	Action                    string         `yaml:"action"`
	Type                      string         `yaml:"type"`
	ID                        string         `yaml:"id"`
	UserID                    string         `yaml:"userId"`
	Data                      map[string]any `yaml:"data"`
}

// LoadBlocks reads a YAML or JSON block file. Transitions without a type
// get defaultType.
func LoadBlocks(path, defaultType string) ([]Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocks: %w", err)
	}
	blocks, err := DecodeBlocks(data, defaultType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return blocks, nil
}

// DecodeBlocks parses a block file. JSON is valid YAML, so both formats go
// through the YAML decoder. Quorum members and references are validated
// eagerly.
func DecodeBlocks(data []byte, defaultType string) ([]Block, error) {
	var file blockFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}

	blocks := make([]Block, 0, len(file.Blocks))
	for i, bs := range file.Blocks {
		block, err := bs.block(defaultType)
		if err != nil {
			return nil, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (s blockSpec) block(defaultType string) (Block, error) {
	b := Block{Height: s.Height, Hash: s.Hash}

	for i, raw := range s.Quorum {
		m, err := document.NewQuorumMember(raw)
		if err != nil {
			return Block{}, fmt.Errorf("quorum[%d]: %w", i, err)
		}
		b.Quorum = append(b.Quorum, m)
	}

	for i, ts := range s.Transitions {
		t, err := ts.transition(defaultType)
		if err != nil {
			return Block{}, fmt.Errorf("transitions[%d]: %w", i, err)
		}
		if _, err := b.Reference(t); err != nil {
			return Block{}, fmt.Errorf("transitions[%d]: %w", i, err)
		}
		b.Transitions = append(b.Transitions, t)
	}
	return b, nil
}

func (s transitionSpec) transition(defaultType string) (Transition, error) {
	action, err := document.ParseAction(s.Action)
	if err != nil {
		return Transition{}, err
	}

	docType := s.Type
	if docType == "" {
		docType = defaultType
	}
	doc := document.NewDocument(docType, s.ID, s.UserID)
	if s.Data != nil {
		v, err := ir.FromGo(s.Data)
		if err != nil {
			return Transition{}, fmt.Errorf("data: %w", err)
		}
		doc.Data = v.(ir.IRObject)
	}
	if err := doc.Validate(); err != nil {
		return Transition{}, err
	}

	return Transition{
		StateTransitionHash:       s.StateTransitionHash,
		StateTransitionPacketHash: s.StateTransitionPacketHash,
		Action:                    action,
		Document:                  doc,
	}, nil
}
