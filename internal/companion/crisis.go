package companion

import (
	"strings"

	"github.com/wolfman30/wellness-companion/internal/contacts"
)

type crisisResources struct {
	emergencyNumber string
	hotline         string
	link            string
}

var ukResources = crisisResources{
	emergencyNumber: "999",
	hotline:         "call Samaritans free on 116 123",
	link:            "https://www.samaritans.org",
}

// crisisRegions is keyed by upper-case ISO country code.
var crisisRegions = map[string]crisisResources{
	"US": {
		emergencyNumber: "911",
		hotline:         "call or text 988 to reach the 988 Suicide & Crisis Lifeline",
		link:            "https://988lifeline.org",
	},
	"CA": {
		emergencyNumber: "911",
		hotline:         "call or text 988 to reach the Suicide Crisis Helpline",
		link:            "https://988.ca",
	},
	"UK": ukResources,
	"GB": ukResources,
	"AU": {
		emergencyNumber: "000",
		hotline:         "call Lifeline on 13 11 14",
		link:            "https://www.lifeline.org.au",
	},
}

func lookupRegion(region string) (crisisResources, bool) {
	r, ok := crisisRegions[strings.ToUpper(strings.TrimSpace(region))]
	return r, ok
}

const (
	crisisOpener    = "I'm really glad you told me, and I'm so sorry you're in this much pain right now. You don't have to face this alone."
	crisisQuestion  = "Are you safe right now? If you're thinking about acting on these thoughts, please reach out for help immediately."
	crisisGeneric   = "If you are in immediate danger, please call your local emergency number right away."
	crisisTrusted   = "If you can, reach out to someone you trust and let them know how you're feeling. You don't have to find the right words."
	crisisInvite    = "I'm here with you. Would you like to keep talking about what's going on?"
	crisisTeamIntro = "You can also reach our care team"
)

// ComposeCrisis builds the fixed safety message. When region is empty the
// contact's region is used. Identical input yields identical output.
func ComposeCrisis(region string, contact *contacts.EmergencyContact) string {
	if strings.TrimSpace(region) == "" && contact != nil {
		region = contact.Region
	}
	resources, known := lookupRegion(region)

	paragraphs := []string{crisisOpener, crisisQuestion}
	if known {
		paragraphs = append(paragraphs,
			"If you are in immediate danger, call "+resources.emergencyNumber+" now. You can also "+resources.hotline+", any time of day or night.")
	} else {
		paragraphs = append(paragraphs, crisisGeneric)
	}
	paragraphs = append(paragraphs, crisisTrusted)
	if known && resources.link != "" {
		paragraphs = append(paragraphs, "More support is available at "+resources.link)
	}
	if line := contactLine(contact); line != "" {
		paragraphs = append(paragraphs, line)
	}
	paragraphs = append(paragraphs, crisisInvite)
	return strings.Join(paragraphs, "\n\n")
}

func contactLine(contact *contacts.EmergencyContact) string {
	if contact == nil {
		return ""
	}
	c := contact.Normalize()
	var channels []string
	if c.Phone != "" {
		channels = append(channels, c.Phone)
	}
	if c.Email != "" {
		channels = append(channels, c.Email)
	}
	if len(channels) == 0 {
		return ""
	}
	line := crisisTeamIntro
	if c.Name != "" {
		line += ", " + c.Name + ","
	}
	return line + " at " + strings.Join(channels, " or ") + "."
}

// CrisisResourceText summarises the region's resources for the system prompt.
func CrisisResourceText(region string) string {
	resources, ok := lookupRegion(region)
	if !ok {
		return "Crisis resources: tell the user to call their local emergency number if they are in danger."
	}
	text := "Crisis resources (" + strings.ToUpper(strings.TrimSpace(region)) + "): emergency number " +
		resources.emergencyNumber + "; " + resources.hotline
	if resources.link != "" {
		text += "; " + resources.link
	}
	return text + "."
}
