package capture

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Parsed is the structured result of one quick-capture line.
type Parsed struct {
	// ID is a throwaway key for in-memory lists; the store assigns the real id on save
	ID string `json:"id"`

	Title       string    `json:"title"`
	Type        Type      `json:"type"`
	Status      *Status   `json:"status"`
	Project     *string   `json:"project"`
	Hashtags    []string  `json:"hashtags"`
	Priority    *Priority `json:"priority"`
	DueDate     *string   `json:"due_date"`
	Category    *Category `json:"category"`
	Description *string   `json:"description"`
}

var (
	noteSigil  = regexp.MustCompile(`^:\s+`)
	habitSigil = regexp.MustCompile(`^--\s*`)
	taskSigil  = regexp.MustCompile(`^-\s*`)

	categoryTag = regexp.MustCompile(`\s/([RrYyPpGg])\s*$`)
	dateTag     = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})`)
	priorityTag = regexp.MustCompile(`/([1-3])\s*$`)

	// A project name is a run of words joined by single spaces. Words stop at
	// whitespace, '#' and '@', so "@a @b" yields two matches.
	projectTag = regexp.MustCompile(`@([^\s#@]+(?:\s[^\s#@]+)*)`)
	hashtagTag = regexp.MustCompile(`#([^\s#@]+)`)
)

// Parse turns one line of free text into a Parsed capture. It never fails;
// unrecognized input becomes a plain task titled with the trimmed text.
//
// Passes run in a fixed order and each one only sees what earlier passes left:
// type sigil, then (tasks only) category, due date and priority, then project
// and hashtags for every type.
func Parse(input string) Parsed {
	typ, rest := detectType(strings.TrimSpace(input))

	p := Parsed{
		ID:       uuid.NewString(),
		Type:     typ,
		Hashtags: []string{},
	}
	if typ != TypeNote {
		status := StatusTodo
		p.Status = &status
	}

	text := rest
	if typ == TypeTask {
		p.Category, text = extractCategory(text)
		p.DueDate, text = extractDueDate(text)
		p.Priority, text = extractPriority(text)
	}
	p.Project, text = extractProject(text)
	p.Hashtags, text = extractHashtags(text)

	p.Title = finalizeTitle(text, p.Project, p.Hashtags, rest)
	return p
}

// detectType checks sigils in precedence order: note colon, habit double
// dash, task single dash. No sigil means a task.
func detectType(s string) (Type, string) {
	if loc := noteSigil.FindStringIndex(s); loc != nil {
		return TypeNote, s[loc[1]:]
	}
	if loc := habitSigil.FindStringIndex(s); loc != nil {
		return TypeHabit, s[loc[1]:]
	}
	if loc := taskSigil.FindStringIndex(s); loc != nil {
		return TypeTask, s[loc[1]:]
	}
	return TypeTask, s
}

func extractCategory(s string) (*Category, string) {
	m := categoryTag.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, s
	}
	c, ok := CategoryFromLetter(s[m[2]])
	if !ok {
		return nil, s
	}
	return &c, cut(s, m[0], m[1])
}

// extractDueDate honors only the first D/M/Y token. Day and month are
// zero-padded and two-digit years land in the 2000s. The date is not
// checked against the calendar.
func extractDueDate(s string) (*string, string) {
	m := dateTag.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, s
	}
	day := padTwo(s[m[2]:m[3]])
	month := padTwo(s[m[4]:m[5]])
	year := s[m[6]:m[7]]
	if len(year) == 2 {
		year = "20" + year
	}
	date := year + "-" + month + "-" + day
	return &date, cut(s, m[0], m[1])
}

func extractPriority(s string) (*Priority, string) {
	m := priorityTag.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, s
	}
	p, ok := PriorityFromDigit(s[m[2]])
	if !ok {
		return nil, s
	}
	return &p, cut(s, m[0], m[1])
}

// extractProject keeps the last @project and removes only that span.
// Earlier @tokens stay in the text.
func extractProject(s string) (*string, string) {
	all := projectTag.FindAllStringSubmatchIndex(s, -1)
	if len(all) == 0 {
		return nil, s
	}
	m := all[len(all)-1]
	name := strings.TrimSpace(s[m[2]:m[3]])
	return &name, cut(s, m[0], m[1])
}

func extractHashtags(s string) ([]string, string) {
	matches := hashtagTag.FindAllStringSubmatch(s, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	if len(tags) == 0 {
		return tags, s
	}
	return tags, hashtagTag.ReplaceAllString(s, "")
}

// finalizeTitle falls back to the project, then the first hashtag, then the
// text left after sigil removal.
func finalizeTitle(remaining string, project *string, hashtags []string, afterSigil string) string {
	if title := strings.TrimSpace(remaining); title != "" {
		return title
	}
	if project != nil && *project != "" {
		return *project
	}
	if len(hashtags) > 0 {
		return hashtags[0]
	}
	return strings.TrimSpace(afterSigil)
}

func cut(s string, start, end int) string {
	return s[:start] + s[end:]
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
