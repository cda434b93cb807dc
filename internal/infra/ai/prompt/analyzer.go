package prompt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

const (
	maxFindings    = 20
	snippetPadding = 60
)

type detector struct {
	re         *regexp.Regexp
	issue      string
	risk       string
	suggestion string
}

// Clause detectors, checked in order. Each contributes at most one finding.
var detectors = []detector{
	// Liability
	{regexp.MustCompile(`(?i)liabilit(y|ies)[^.]{0,120}(cap|limit|exceed|not be liable)`), "Liability cap", "Recovery may be limited to an amount far below the realistic loss.", "Negotiate carve-outs for gross negligence, data breaches and IP infringement, and tie the cap to a meaningful multiple of fees."},
	{regexp.MustCompile(`(?i)(consequential|indirect|incidental|special)\s+(damages|loss)`), "Exclusion of consequential damages", "Lost profits and downstream losses may be unrecoverable.", "Confirm which heads of loss are excluded and carve out losses that are the likely result of a breach."},
	{regexp.MustCompile(`(?i)indemnif(y|ies|ication)`), "Indemnity obligation", "An uncapped or one-sided indemnity can shift third-party claims entirely onto one party.", "Make the indemnity mutual where possible, cap it, and add notice and defence-control conditions."},
	// Term and exit
	{regexp.MustCompile(`(?i)(automatic(ally)?\s+renew|auto-renew|renew(s|ed)?\s+automatically)`), "Automatic renewal", "The contract may roll over before anyone reviews it.", "Diary the notice window and ask for a renewal reminder obligation or a shorter notice period."},
	{regexp.MustCompile(`(?i)terminat(e|ion)[^.]{0,80}(for convenience|at any time|without cause)`), "Termination for convenience", "The counterparty can exit early without compensating sunk costs.", "Require a notice period and payment for work performed and committed costs on early termination."},
	{regexp.MustCompile(`(?i)(non-compete|not\s+compete|non-solicit)`), "Restrictive covenant", "Broad restraints may be unenforceable or may block future business.", "Limit duration, geography and scope to what protects a legitimate interest."},
	// Money
	{regexp.MustCompile(`(?i)(late\s+(payment|fee)|interest\s+at\s+\d)`), "Late payment charges", "Penalty-style interest may accrue quickly on disputed invoices.", "Check the rate against statutory limits and add a dispute mechanism that pauses interest."},
	{regexp.MustCompile(`(?i)(liquidated\s+damages|penalt(y|ies))`), "Liquidated damages or penalty", "A sum that is not a genuine pre-estimate of loss risks being struck down as a penalty.", "Document how the amount was calculated and keep it proportionate to the likely loss."},
	// Disputes
	{regexp.MustCompile(`(?i)(governing\s+law|governed\s+by\s+the\s+laws?\s+of)`), "Governing law", "An unfamiliar governing law changes how every other clause is interpreted.", "Confirm the chosen law suits both parties and matches the dispute forum."},
	{regexp.MustCompile(`(?i)arbitrat(ion|or)`), "Arbitration clause", "Arbitration limits appeal rights and can be costly for smaller claims.", "Check the seat, rules and number of arbitrators, and consider a small-claims carve-out."},
	{regexp.MustCompile(`(?i)(exclusive\s+jurisdiction|courts\s+of)`), "Jurisdiction clause", "Litigation may have to be brought in a distant or unfavourable forum.", "Align jurisdiction with governing law and the location of key assets."},
	// Information
	{regexp.MustCompile(`(?i)confidential(ity)?`), "Confidentiality obligations", "Undefined confidential information or an indefinite term can be hard to comply with.", "Define confidential information, list standard exclusions and set a survival period."},
	{regexp.MustCompile(`(?i)(personal\s+data|data\s+protection|gdpr)`), "Data protection", "Processing personal data without adequate terms exposes both parties to regulatory action.", "Attach a data processing agreement covering security, sub-processors and breach notification."},
	{regexp.MustCompile(`(?i)intellectual\s+property|\bIP\b`), "Intellectual property ownership", "Unclear ownership of deliverables can leave the paying party without rights to use them.", "State who owns background and foreground IP and grant any needed licences expressly."},
	// Drafting
	{regexp.MustCompile(`(?i)\b(sole|absolute)\s+discretion\b`), "Unilateral discretion", "One party can make decisions affecting the other without any standard of reasonableness.", "Replace with \"acting reasonably\" or add objective criteria."},
	{regexp.MustCompile(`(?i)\bbest\s+efforts\b`), "Best efforts obligation", "Best efforts can require steps beyond commercial reasonableness.", "Consider \"commercially reasonable efforts\" and list the expected actions."},
}

// AnalyzeDocument runs the clause detectors over document and returns a
// result in the same shape the AI provider produces. It never fails.
func AnalyzeDocument(req ai.SpotRequest) analysis.Result {
	document := req.Document
	result := analysis.Result{}

	// Track which detector triggered to avoid duplicate issues
	seen := map[string]bool{}
	for _, d := range detectors {
		loc := d.re.FindStringIndex(document)
		if loc == nil || seen[d.issue] {
			continue
		}
		seen[d.issue] = true

		page := pageAt(document, loc[0])
		start := float64(utf8.RuneCountInString(document[:loc[0]]))
		end := start + float64(utf8.RuneCountInString(document[loc[0]:loc[1]]))
		result.Findings = append(result.Findings, analysis.Finding{
			Issue:      d.issue,
			Risk:       analysis.Strptr(d.risk),
			Suggestion: analysis.Strptr(d.suggestion),
			Span:       &analysis.Span{Page: analysis.Numptr(page), Start: analysis.Numptr(start), End: analysis.Numptr(end)},
		})
		result.Citations = append(result.Citations, analysis.Citation{
			Page:    analysis.Numptr(page),
			Snippet: analysis.Strptr(snippet(document, loc[0], loc[1])),
		})
	}

	// Cap findings to keep output compact
	if len(result.Findings) > maxFindings {
		result.Findings = result.Findings[:maxFindings]
		result.Citations = result.Citations[:maxFindings]
	}

	switch n := len(result.Findings); n {
	case 0:
		result.Summary = "No common risk clauses were detected. Review the document manually; heuristic screening can miss issues."
	case 1:
		result.Summary = "1 issue found: " + result.Findings[0].Issue + "."
	default:
		names := make([]string, 0, 3)
		for _, f := range result.Findings[:min(3, n)] {
			names = append(names, f.Issue)
		}
		result.Summary = fmt.Sprintf("%d issues found, including %s.", n, strings.Join(names, ", "))
	}
	return result
}

// pageAt counts form feeds before offset. Plain text is one page.
func pageAt(document string, offset int) float64 {
	return float64(strings.Count(document[:offset], "\f") + 1)
}

func snippet(document string, start, end int) string {
	from := max(0, start-snippetPadding)
	to := min(len(document), end+snippetPadding)
	for from > 0 && !utf8.RuneStart(document[from]) {
		from--
	}
	for to < len(document) && !utf8.RuneStart(document[to]) {
		to++
	}
	return strings.Join(strings.Fields(document[from:to]), " ")
}

// Heuristic answers without an AI provider. It keeps the server usable
// locally when no API key is configured.
type Heuristic struct{}

// SpotIssues implements ai.Client.
func (Heuristic) SpotIssues(_ context.Context, req ai.SpotRequest) (analysis.Result, error) {
	return AnalyzeDocument(req), nil
}

// AnswerFollowup quotes the context paragraphs that share words with the question.
func (Heuristic) AnswerFollowup(_ context.Context, req analysis.FollowupRequest) (string, error) {
	words := keywords(req.Question)
	var matches []string
	for _, para := range strings.Split(req.Context, "\n\n") {
		lower := strings.ToLower(para)
		for _, w := range words {
			if strings.Contains(lower, w) {
				matches = append(matches, strings.TrimSpace(para))
				break
			}
		}
	}
	if len(matches) == 0 {
		return "I could not find that in the analysis. Try asking about one of the findings by name.", nil
	}
	return "From the analysis:\n\n" + strings.Join(matches, "\n\n"), nil
}

var stopWords = map[string]bool{
	"the": true, "and": true, "what": true, "does": true, "this": true, "that": true,
	"with": true, "about": true, "how": true, "why": true, "can": true, "should": true,
	"for": true, "are": true, "is": true, "it": true, "of": true, "to": true, "in": true,
}

func keywords(question string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}
