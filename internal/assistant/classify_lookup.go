package assistant

import (
	"regexp"

	"github.com/wolfman30/crm-assistant/internal/records"
)

var (
	phoneKeywordPattern   = regexp.MustCompile(`\b(phone|mobile|cell)\b`)
	existencePattern      = regexp.MustCompile(`\b(called|named)\b|\bhave a lead\b|\bname of that lead\b|\bthat lead\b`)
	leadMentionPattern    = regexp.MustCompile(`\bleads?\b`)
	contactMentionPattern = regexp.MustCompile(`\bcontacts?\b`)
)

func classifyRecordLookup(u Utterance, h Hints) (Intent, bool) {
	name := h.PersonName()
	mentionsLead := leadMentionPattern.MatchString(u.Norm)
	mentionsContact := contactMentionPattern.MatchString(u.Norm)
	resolvable := name != "" || mentionsLead || mentionsContact
	entities := lookupEntities(mentionsLead, mentionsContact)

	switch {
	case hasNavVerb(u.Norm) && resolvable:
		return RecordLookup{Kind: LookupNavigate, Subject: name, Entities: entities}, true
	case phoneKeywordPattern.MatchString(u.Norm) && resolvable:
		return RecordLookup{Kind: LookupPhone, Subject: name, Entities: entities}, true
	case existencePattern.MatchString(u.Norm):
		return RecordLookup{Kind: LookupExistence, Subject: name, Entities: entities}, true
	}
	return nil, false
}

// lookupEntities restricts the search when exactly one of lead/contact is named;
// otherwise leads are searched before contacts.
func lookupEntities(mentionsLead, mentionsContact bool) []records.Entity {
	switch {
	case mentionsLead && !mentionsContact:
		return []records.Entity{records.EntityLead}
	case mentionsContact && !mentionsLead:
		return []records.Entity{records.EntityContact}
	default:
		return []records.Entity{records.EntityLead, records.EntityContact}
	}
}
