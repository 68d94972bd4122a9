package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helmlabs/helmsman/internal/logging"
)

// registerRecord adds the recording and replay tools. They drive the shared
// recorder; replay dispatches back through the registry by operation name.
func (s *set) registerRecord() {
	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_last_action",
		description: "Get last action performed.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			last, ok := s.rec.Last()
			if !ok {
				return "Last action: none", nil
			}
			data, err := json.Marshal(last)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Last action: %s", data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_recording",
		description: "Get recorded sequence.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			data, err := json.Marshal(s.rec.Sequence())
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Recording: %s", data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "record_last_action",
		description: "Add last action to recorded sequence.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			action, err := s.rec.Record()
			if err != nil {
				return "Last action does not exist", nil
			}
			data, merr := json.Marshal(action)
			if merr != nil {
				return "", merr
			}
			return fmt.Sprintf("Action recorded: %s", data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "save_recording",
		description: "Save the recorded sequence to a JSON file.",
		schema: `{
			"type": "object",
			"properties": {
				"reset_recording": {"type": "boolean", "description": "Clear the recording after saving (default: true)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Reset *bool `json:"reset_recording"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			reset := args.Reset == nil || *args.Reset
			path, count, err := s.rec.Save(reset)
			if err != nil {
				return fmt.Sprintf("Error saving recording: %v", err), nil
			}
			logging.Infof("Saved recording to %s", path)
			return fmt.Sprintf("Recording (%d actions) saved to %s", count, path), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "load_recording",
		description: "Load a recording from a JSON file.",
		schema: `{
			"type": "object",
			"properties": {
				"filename": {"type": "string", "description": "Recording file name inside the recordings directory"}
			},
			"required": ["filename"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Filename string `json:"filename"`
			}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			path, count, err := s.rec.Load(args.Filename)
			if err != nil {
				return fmt.Sprintf("Error loading recording: %v", err), nil
			}
			return fmt.Sprintf("Recording loaded (%d actions) from %s", count, path), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "reset_recording",
		description: "Reset the last action and the recorded sequence.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			s.rec.Reset()
			return "Recording has been reset", nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "play_recording",
		description: "Perform actions in current recording, with delay seconds between.",
		schema: `{
			"type": "object",
			"properties": {
				"delay": {"type": "number", "description": "Seconds to sleep between steps (default: 0)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Delay float64 `json:"delay"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			logging.Infof("Play recording of %d actions. Delay: %g seconds", len(s.rec.Sequence()), args.Delay)
			delay := time.Duration(args.Delay * float64(time.Second))
			err := s.rec.Play(ctx, delay, func(ctx context.Context, name string, actionArgs map[string]any) error {
				data, err := json.Marshal(actionArgs)
				if err != nil {
					return err
				}
				if res := s.registry.Execute(ctx, name, data); res.IsError {
					return errors.New(res.Content)
				}
				return nil
			})
			if err != nil {
				return fmt.Sprintf("Error playing recording: %v", err), nil
			}
			return "Recording has been played", nil
		},
	})
}
