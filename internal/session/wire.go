package session

import (
	"errors"
	"fmt"
	"strings"

	"bullet-cli/internal/model"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ParseWire reads a wire command from JSON or YAML.
func ParseWire(b []byte) (model.WireCommand, error) {
	var w model.WireCommand
	if err := yaml.Unmarshal(b, &w); err != nil {
		return model.WireCommand{}, fmt.Errorf("parse command: %w", err)
	}
	return w, nil
}

// DecodeCommand validates w and converts it into an engine command.
func DecodeCommand(w model.WireCommand) (model.Command, error) {
	if err := validate.Struct(w); err != nil {
		return model.Command{}, formatValidationError(err)
	}
	kind, err := model.ParseCommandKind(w.Kind)
	if err != nil {
		return model.Command{}, err
	}
	cmd := model.NewCommand(kind)
	if w.TargetID != nil {
		cmd = cmd.On(*w.TargetID)
	}
	if w.Caret != nil {
		cmd = cmd.AtCaret(*w.Caret)
	}
	if w.Text != nil {
		cmd = cmd.WithText(*w.Text)
	} else if kind == model.CmdSetText {
		return model.Command{}, errors.New("set-text requires text")
	}
	if w.ScopeRootID != nil {
		cmd = cmd.Scoped(*w.ScopeRootID)
	}
	return cmd, nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s is out of range (%s %s)", field, e.Tag(), e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("invalid command: %s", strings.Join(msgs, "; "))
}
