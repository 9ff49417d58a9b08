package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"pakd/pkg/backend"
)

// Confirm prompts the user for yes/no confirmation. Non-interactive
// sessions get the default answer.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	if !Interactive() {
		return defaultYes, nil
	}

	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}
	return result == "y" || result == "yes", nil
}

// ConfirmEula shows a license agreement and asks whether to accept it.
func ConfirmEula(eula backend.Eula) (bool, error) {
	HeaderMsg("License agreement for %s", eula.PackageID.Name)
	printField("Vendor", eula.Vendor)
	printField("Agreement", eula.ID)
	Println("")
	Println("%s", eula.Agreement)
	Println("")
	return Confirm("Do you accept this agreement", false)
}

// ConfirmSignature shows a repository signing key and asks whether to
// trust it.
func ConfirmSignature(sig backend.RepoSignature) (bool, error) {
	HeaderMsg("Signature required for %s", sig.PackageID.Name)
	printField("Repository", sig.RepoName)
	printField("Key ID", sig.KeyID)
	printField("Key user", sig.KeyUserID)
	printField("Fingerprint", sig.KeyFingerprint)
	printField("Key URL", sig.KeyURL)
	printField("Created", sig.KeyTimestamp)
	return Confirm(fmt.Sprintf("Import key %s", sig.KeyID), false)
}

// SelectPackage prompts the user to pick one of several candidates.
func SelectPackage(ids []backend.PackageID, prompt string) (backend.PackageID, error) {
	if len(ids) == 0 {
		return backend.PackageID{}, fmt.Errorf("no packages to select from")
	}
	if len(ids) == 1 || !Interactive() {
		return ids[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Version | green }} {{ .Arch }} [{{ .Data | magenta }}]",
		Inactive: "  {{ .Name }} {{ .Version | faint }} {{ .Arch | faint }} [{{ .Data | faint }}]",
		Selected: "✓ {{ .Name | cyan }} {{ .Version | green }} {{ .Arch }} [{{ .Data | magenta }}]",
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(ids[index].String()), strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     ids,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return backend.PackageID{}, err
	}
	return ids[index], nil
}
