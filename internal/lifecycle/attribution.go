package lifecycle

import "github.com/jonathan/recruit-tracker/internal/types"

// Attribution parties recorded in rejectedBy / droppedBy.
const (
	AttributionInternal = "Manager"
	AttributionExternal = "Client"
)

// defaultAttribution maps the status a candidate left to the party a
// rejection or drop is attributed to when the caller does not say.
var defaultAttribution = map[types.Status]string{
	types.StatusShortlisted: AttributionInternal,
	types.StatusInterviewed: AttributionExternal,
	types.StatusSelected:    AttributionExternal,
	types.StatusJoined:      AttributionExternal,
}

// RejectionAttribution is DefaultAttribution for rejections, except that a
// candidate whose latest interview stage ended in rejection is attributed to
// the client whatever status it left.
func RejectionAttribution(c *types.Candidate, prior types.Status, actor types.User) string {
	if n := len(c.InterviewStageHistory); n > 0 && c.InterviewStageHistory[n-1].Outcome == types.OutcomeRejected {
		return AttributionExternal
	}
	return DefaultAttribution(prior, actor)
}

// DefaultAttribution returns who a rejection or drop from prior is attributed to.
// Statuses without an entry fall back to the acting user's role.
func DefaultAttribution(prior types.Status, actor types.User) string {
	if party, ok := defaultAttribution[prior]; ok {
		return party
	}
	return string(actor.Role)
}
