package render

import (
	"fmt"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/mikey/sender-protect/internal/core"
	"github.com/mikey/sender-protect/internal/emlparse"
)

// DomainTypeFree is the domain_type value the API uses for free mail services
const DomainTypeFree = "Free Email"

const (
	spamExplanation = `This email is classified as SPAM. Our AI detected common spam characteristics such as: suspicious urgency language ("Act now!", "Limited time"), promotional keywords, requests for personal information, or unverified sender claims. The confidence score of %s means we're very confident this is spam based on word patterns%s.`
	hamExplanation  = `This email is classified as HAM (legitimate). It appears to be a genuine message with natural business or personal communication. We didn't find the suspicious patterns typical of spam, such as excessive urgency, unknown sender claims, or requests for sensitive information. The confidence score of %s means we're very confident this is a legitimate email%s.`

	spamEnhancedSuffix = " and sender domain analysis"
	hamEnhancedSuffix  = " based on text analysis and sender domain reputation"

	freeDomainTypeNote   = "Free email services (Gmail, Yahoo, Outlook) are commonly used for both legitimate and spam emails."
	customDomainTypeNote = "Custom domains are typically associated with businesses and organizations, which can indicate legitimacy."

	flaggedNote   = "This email uses a free email service, which requires more careful analysis."
	unflaggedNote = "This email comes from a custom domain, which is often a good sign."

	baselineModelNote = "This model analyzes word patterns and language features. A high confidence means the email's words and structure strongly match known spam or legitimate emails."
	enhancedModelNote = "This model adds domain information on top of word analysis. It considers whether the sender's domain is from a free email service, adding an extra layer of scrutiny."

	// DifferenceTitle heads the note on diverging confidence levels
	DifferenceTitle = "Why might the percentages differ?"
	differenceNote  = "The baseline model uses only text analysis (word patterns), while the enhanced model also considers the sender's domain type. " +
		"Even though both models make the same prediction (spam or ham), their confidence levels can differ slightly because they process " +
		"information differently. The enhanced model's domain information adds an extra layer of analysis, which may increase or decrease " +
		"confidence depending on whether the domain reinforces or questions the text-based prediction."

	unavailable = "unavailable"
)

// ModelView is one model block of the comparison section
type ModelView struct {
	ModelName  string
	Badge      string
	BadgeClass string
	Confidence string
	Note       string
	Enhanced   bool
	Available  bool
}

// ParsedView is the server-side parse of an uploaded file
type ParsedView struct {
	Sender  string
	Subject string
}

// ResultView is everything the result section displays
type ResultView struct {
	Heading     string
	Badge       string
	BadgeClass  string
	Confidence  string
	Explanation string
	Available   bool

	SenderDomain   string
	DomainType     string
	DomainTypeNote string
	DomainFlag     string
	DomainFlagged  bool
	DomainFlagNote string

	DifferenceNote string
	Models         []ModelView
	Parsed         *ParsedView
}

// NewResultView maps a stored outcome to display values. The active model is
// chosen from the flag recorded on the outcome, never from the live form.
func NewResultView(outcome *core.Outcome) *ResultView {
	if outcome == nil || outcome.Result == nil {
		return nil
	}
	result := outcome.Result
	enhanced := outcome.UseEnhanced

	view := &ResultView{
		Heading:        mainHeading(enhanced),
		SenderDomain:   result.Metadata.SenderDomain,
		DomainType:     result.Metadata.DomainType,
		DomainFlagged:  result.Metadata.DomainFlag,
		DifferenceNote: differenceNote,
	}

	active := newModelView(result.Active(enhanced), enhanced)
	view.Available = active.Available
	view.Badge = active.Badge
	view.BadgeClass = active.BadgeClass
	view.Confidence = active.Confidence
	if active.Available {
		view.Explanation = explanation(result.Active(enhanced), enhanced)
	}

	if result.Metadata.DomainType == DomainTypeFree {
		view.DomainTypeNote = freeDomainTypeNote
	} else {
		view.DomainTypeNote = customDomainTypeNote
	}
	if result.Metadata.DomainFlag {
		view.DomainFlag = "Yes"
		view.DomainFlagNote = flaggedNote
	} else {
		view.DomainFlag = "No"
		view.DomainFlagNote = unflaggedNote
	}

	view.Models = append(view.Models, newModelView(result.Baseline, false))
	if enhanced {
		view.Models = append(view.Models, newModelView(result.Enhanced, true))
	}

	if result.ParsedData != nil {
		view.Parsed = &ParsedView{
			Sender:  displaySender(result.ParsedData.Sender),
			Subject: emlparse.DecodeHeader(result.ParsedData.Subject),
		}
	}

	return view
}

func mainHeading(enhanced bool) string {
	if enhanced {
		return "Main Prediction (Enhanced Model)"
	}
	return "Main Prediction (Baseline Model)"
}

func newModelView(p *core.Prediction, enhanced bool) ModelView {
	mv := ModelView{Enhanced: enhanced, Note: baselineModelNote}
	if enhanced {
		mv.Note = enhancedModelNote
	}
	if p == nil {
		mv.ModelName = unavailable
		mv.Badge = strings.ToUpper(unavailable)
		mv.Confidence = unavailable
		return mv
	}

	mv.Available = true
	mv.ModelName = p.ModelName
	mv.Badge = strings.ToUpper(p.Prediction)
	mv.BadgeClass = strings.ToLower(p.Prediction)
	mv.Confidence = FormatConfidence(p.Confidence)
	return mv
}

func explanation(p *core.Prediction, enhanced bool) string {
	confidence := FormatConfidence(p.Confidence)
	if p.IsSpam() {
		suffix := ""
		if enhanced {
			suffix = spamEnhancedSuffix
		}
		return fmt.Sprintf(spamExplanation, confidence, suffix)
	}

	suffix := ""
	if enhanced {
		suffix = hamEnhancedSuffix
	}
	return fmt.Sprintf(hamExplanation, confidence, suffix)
}

// FormatConfidence renders a confidence already expressed in percent
func FormatConfidence(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// displaySender decodes encoded words in a From value, keeping the raw text
// when it does not parse as an address.
func displaySender(raw string) string {
	if raw == "" {
		return ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return emlparse.DecodeHeader(raw)
	}
	if addr.Name == "" {
		return addr.Address
	}
	return fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
}
