package ixgest

import (
	"fmt"
	"strings"

	"github.com/teranos/structix/assemble"
	"github.com/teranos/structix/format"
)

// Describe returns the one-paragraph description of what a step with these
// parameters will do. Formats registered as single-structure get the short
// handling text; expressions, unknown formats and multi-structure formats
// get the text for several structures.
func Describe(p Params, reg *format.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Read structure from %s. ", strings.TrimSpace(p.File))

	single := false
	if ext := p.Extension(); ext != "" && ext != "all" && reg != nil {
		if d, err := reg.Lookup(ext); err == nil {
			single = d.Metadata.SingleStructure
		}
	}

	if single {
		b.WriteString(singleHandling(p))
	} else {
		b.WriteString(multipleHandling(p))
	}
	return b.String()
}

func singleHandling(p Params) string {
	return "The structure will overwrite the target configuration, or start a new system when there is none. " +
		names(p)
}

func multipleHandling(p Params) string {
	var b strings.Builder
	indices := strings.TrimSpace(p.Indices)
	switch {
	case indices == "" || indices == assemble.AllIndices:
		b.WriteString("All structures in the file will be read. ")
	case IsExpression(indices):
		fmt.Fprintf(&b, "The structures selected by %s will be read. ", indices)
	default:
		fmt.Fprintf(&b, "Structures %s will be read. ", indices)
	}

	b.WriteString("The first will overwrite the target configuration, or start a new system when there is none. ")
	sub, err := assemble.ParseSubsequent(p.Subsequent)
	switch {
	case IsExpression(p.Subsequent):
		fmt.Fprintf(&b, "Later structures are handled as given by %s. ", strings.TrimSpace(p.Subsequent))
	case err != nil:
	case sub == assemble.SubsequentNewConfiguration:
		b.WriteString("Each later structure will be added as a new configuration of the same system. ")
	default:
		b.WriteString("Each later structure will be placed in a new system and configuration. ")
	}
	b.WriteString(names(p))
	return b.String()
}

func names(p Params) string {
	return fmt.Sprintf("The system name will be %s and the configuration name will be %s.",
		nameText(p.SystemName), nameText(p.ConfigurationName))
}

func nameText(rule string) string {
	switch strings.TrimSpace(rule) {
	case "", assemble.NameFromFile:
		return "taken from the file"
	case assemble.NameKeepCurrent:
		return "kept as it is"
	}
	return fmt.Sprintf("'%s'", strings.TrimSpace(rule))
}
