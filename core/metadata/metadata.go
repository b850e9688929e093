// Package metadata renders the documentation of an agent from its
// keywords: the usage text, the XML resource agent descriptor read by
// the orchestrator, and the manpage.
package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/opensvc/fence-agents/core/keywords"
)

type (
	// Doc is the documentation source of an agent.
	Doc struct {
		Name      string
		ShortDesc string
		LongDesc  string
		VendorURL string
		Store     keywords.Store
		Set       keywords.Set
	}

	resourceAgent struct {
		XMLName    xml.Name    `xml:"resource-agent"`
		Name       string      `xml:"name,attr"`
		ShortDesc  string      `xml:"shortdesc,attr"`
		LongDesc   string      `xml:"longdesc"`
		VendorURL  string      `xml:"vendor-url"`
		Parameters []parameter `xml:"parameters>parameter"`
		Actions    []xmlAction `xml:"actions>action"`
	}

	parameter struct {
		Name      string    `xml:"name,attr"`
		Unique    string    `xml:"unique,attr"`
		Required  string    `xml:"required,attr"`
		Getopt    getopt    `xml:"getopt"`
		Content   content   `xml:"content"`
		ShortDesc shortDesc `xml:"shortdesc"`
	}

	getopt struct {
		Mixed string `xml:"mixed,attr"`
	}

	content struct {
		Type    string   `xml:"type,attr"`
		Default string   `xml:"default,attr,omitempty"`
		Options []option `xml:"option"`
	}

	option struct {
		Value string `xml:"value,attr"`
	}

	shortDesc struct {
		Lang string `xml:"lang,attr"`
		Text string `xml:",chardata"`
	}

	xmlAction struct {
		Name      string `xml:"name,attr"`
		OnTarget  string `xml:"on_target,attr,omitempty"`
		Automatic string `xml:"automatic,attr,omitempty"`
	}

	// Action is a documented action.
	Action struct {
		Name      string
		Text      string
		OnTarget  bool
		Automatic bool
	}
)

const header = `<?xml version="1.0" ?>` + "\n"

var actionTexts = map[string]string{
	"on":           "Power on machine.",
	"off":          "Power off machine.",
	"enable":       "Enable fabric access.",
	"disable":      "Disable fabric access.",
	"reboot":       "Reboot machine.",
	"status":       "This returns the status of the plug/virtual machine.",
	"list":         "List available plugs with aliases/virtual machines if there is support for more then one device. Returns N/A otherwise.",
	"list-status":  "List available plugs with aliases/virtual machines and their power state if it can be obtained without additional commands.",
	"monitor":      "Check the health of fence device",
	"metadata":     "Display the XML metadata describing this resource.",
	"manpage":      "The operational behavior of this is not known.",
	"validate-all": "Validate if all required parameters are entered.",
}

// Keywords returns the documented keywords, sorted. The capability
// keywords are not documented.
func (t Doc) Keywords() []keywords.Keyword {
	l := make([]keywords.Keyword, 0)
	for _, kw := range t.Store.Select(t.Set) {
		if kw.IsCapability() {
			continue
		}
		l = append(l, kw)
	}
	return l
}

// Actions returns the documented actions, in the order expected by the
// orchestrator.
func (t Doc) Actions() []Action {
	l := make([]Action, 0)
	add := func(name string, cond bool) {
		if cond {
			l = append(l, Action{Name: name, Text: actionTexts[name]})
		}
	}
	fabric := t.Set.Has("fabric_fencing")
	if !t.Set.Has("no_on") {
		l = append(l, Action{Name: "on", Text: actionTexts["on"], OnTarget: fabric, Automatic: fabric})
	}
	add("off", !t.Set.Has("no_off"))
	add("reboot", !fabric)
	add("status", !t.Set.Has("no_status"))
	add("list", true)
	add("list-status", true)
	add("monitor", true)
	add("metadata", true)
	add("manpage", true)
	add("validate-all", true)
	return l
}

// XML returns the resource agent descriptor.
func (t Doc) XML() ([]byte, error) {
	ra := resourceAgent{
		Name:      t.Name,
		ShortDesc: t.ShortDesc,
		LongDesc:  t.LongDesc,
		VendorURL: t.VendorURL,
	}
	for _, kw := range t.Keywords() {
		ra.Parameters = append(ra.Parameters, parameter{
			Name:      kw.Name,
			Unique:    "0",
			Required:  boolString(kw.IsRequired(t.Set)),
			Getopt:    getopt{Mixed: kw.Spelling()},
			Content:   contentOf(kw),
			ShortDesc: shortDesc{Lang: "en", Text: kw.Desc()},
		})
	}
	for _, a := range t.Actions() {
		e := xmlAction{Name: a.Name}
		if a.Name == "on" {
			e.Automatic = boolString(a.Automatic)
			if a.OnTarget {
				e.OnTarget = "1"
			}
		}
		ra.Actions = append(ra.Actions, e)
	}
	b, err := xml.MarshalIndent(ra, "", "\t")
	if err != nil {
		return nil, err
	}
	return append(append([]byte(header), b...), '\n'), nil
}

func contentOf(kw keywords.Keyword) content {
	c := content{Default: kw.Default}
	switch {
	case len(kw.Candidates) > 0:
		c.Type = "select"
		for _, s := range kw.Candidates {
			c.Options = append(c.Options, option{Value: s})
		}
	case kw.IsBoolean():
		c.Type = "boolean"
	default:
		c.Type = kw.Type.String()
	}
	return c
}

// Help returns the usage text displayed by --help.
func (t Doc) Help() string {
	var b strings.Builder
	if t.ShortDesc != "" {
		fmt.Fprintf(&b, "%s\n\n", t.ShortDesc)
	}
	b.WriteString("Usage:\n")
	fmt.Fprintf(&b, "\t%s [options]\n", t.Name)
	b.WriteString("Options:\n")
	for _, kw := range t.Keywords() {
		b.WriteString(kw.Usage())
		b.WriteString("\n")
	}
	return b.String()
}

// Manpage returns the groff source of the agent manpage.
func (t Doc) Manpage(date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, ".TH %s 8 %s \"%s (Fence Agent)\"\n", strings.ToUpper(t.Name), date.Format("2006-01-02"), t.Name)
	b.WriteString(".SH NAME\n")
	fmt.Fprintf(&b, "%s - %s\n", t.Name, groffEscape(t.ShortDesc))
	b.WriteString(".SH DESCRIPTION\n.P\n")
	b.WriteString(groffEscape(t.LongDesc) + "\n")
	if t.VendorURL != "" {
		b.WriteString(".P\nVendor URL: " + groffEscape(t.VendorURL) + "\n")
	}
	b.WriteString(".SH PARAMETERS\n")
	for _, kw := range t.Keywords() {
		fmt.Fprintf(&b, ".TP\n.B %s\n%s", groffEscape(kw.Spelling()), groffEscape(kw.Text))
		if kw.Default != "" && !kw.Flag {
			fmt.Fprintf(&b, " (Default Value: %s)", groffEscape(kw.Default))
		}
		b.WriteString("\n")
	}
	b.WriteString(".SH ACTIONS\n")
	for _, a := range t.Actions() {
		fmt.Fprintf(&b, ".TP\n\\fB%s \\fP\n%s\n", groffEscape(a.Name), groffEscape(a.Text))
	}
	b.WriteString(".SH STDIN PARAMETERS\n")
	for _, kw := range t.Keywords() {
		fmt.Fprintf(&b, ".TP\n.B %s\n%s", kw.Name, groffEscape(kw.Text))
		if kw.IsRequired(t.Set) {
			b.WriteString(" This parameter is always required.")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func groffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n.", "\n\\&.")
	return strings.ReplaceAll(s, "-", `\-`)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
