package ui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// PromptConfirmation asks a yes/no question, defaulting to no.
func PromptConfirmation(message string) (bool, error) {
	confirmed := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// PromptRemote asks for a git remote URL, validated by validate.
func PromptRemote(message string, validate func(string) error) (string, error) {
	remote := ""
	prompt := &survey.Input{
		Message: message,
		Help:    "e.g. git@github.com:org/repo.git or https://github.com/org/repo",
	}
	validator := func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("expected a string")
		}
		return validate(s)
	}
	if err := survey.AskOne(prompt, &remote, survey.WithValidator(survey.Required), survey.WithValidator(validator)); err != nil {
		return "", err
	}
	return remote, nil
}
