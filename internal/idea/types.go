// Package idea defines the core domain model for the brainstorm engine:
// extracted ideas, their lifecycle statuses, topic groups, project items,
// and the append-only version history attached to every idea.
//
// Ideas are created during live conversation, mutated only by appending
// versions, and never deleted — at finalize time an accepted idea is
// superseded by a ProjectItem that carries a snapshot of it.
package idea

import "fmt"

// --- Source enum ---

// Source records where an idea originated.
type Source string

const (
	SourceUserMention   Source = "user_mention"
	SourceAISuggestion  Source = "ai_suggestion"
	SourceCollaborative Source = "collaborative"
)

var validSources = map[Source]bool{
	SourceUserMention:   true,
	SourceAISuggestion:  true,
	SourceCollaborative: true,
}

// ValidateSource returns an error if the source is not recognized.
func ValidateSource(s Source) error {
	if !validSources[s] {
		return fmt.Errorf("invalid idea source %q: must be one of: user_mention, ai_suggestion, collaborative", s)
	}
	return nil
}

// --- Status enum ---

// Status tracks how far an idea has progressed during live conversation.
type Status string

const (
	StatusMentioned      Status = "mentioned"
	StatusExploring      Status = "exploring"
	StatusRefined        Status = "refined"
	StatusReadyToExtract Status = "ready_to_extract"
)

var validStatuses = map[Status]bool{
	StatusMentioned:      true,
	StatusExploring:      true,
	StatusRefined:        true,
	StatusReadyToExtract: true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid idea status %q: must be one of: mentioned, exploring, refined, ready_to_extract", s)
	}
	return nil
}

// --- Innovation level enum ---

// InnovationLevel categorizes how adventurous an idea is.
type InnovationLevel string

const (
	InnovationPractical    InnovationLevel = "practical"
	InnovationModerate     InnovationLevel = "moderate"
	InnovationExperimental InnovationLevel = "experimental"
)

// --- Decision state enum ---

// DecisionState describes the user's disposition toward an idea:
// committed, still being considered, shelved, or declined.
type DecisionState string

const (
	StateDecided   DecisionState = "decided"
	StateExploring DecisionState = "exploring"
	StateParked    DecisionState = "parked"
	StateRejected  DecisionState = "rejected"
)

var validStates = map[DecisionState]bool{
	StateDecided:   true,
	StateExploring: true,
	StateParked:    true,
	StateRejected:  true,
}

// ValidateState returns an error if the decision state is not recognized.
func ValidateState(s DecisionState) error {
	if !validStates[s] {
		return fmt.Errorf("invalid decision state %q: must be one of: decided, exploring, parked, rejected", s)
	}
	return nil
}

// --- Changed-by enum ---

// ChangedBy identifies who triggered a version change.
type ChangedBy string

const (
	ChangedByUser ChangedBy = "user"
	ChangedByAI   ChangedBy = "ai"
)

// --- Core data structures ---

// Content is the substantive payload of an idea at a point in time.
type Content struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reasoning   string `json:"reasoning"`
	UserIntent  string `json:"user_intent"`
}

// ConversationContext pins an idea to the conversation moment it surfaced in.
type ConversationContext struct {
	MessageID        string   `json:"message_id"`
	Timestamp        string   `json:"timestamp"` // RFC3339
	LeadingQuestions []string `json:"leading_questions,omitempty"`
	Topic            string   `json:"topic,omitempty"`
	TopicConfidence  int      `json:"topic_confidence,omitempty"` // 0-100
}

// Version is one entry in an idea's append-only evolution history.
// Version numbers start at 1 and increase strictly with no gaps.
type Version struct {
	Version   int       `json:"version"`
	Content   Content   `json:"content"`
	Timestamp string    `json:"timestamp"` // RFC3339
	ChangedBy ChangedBy `json:"changed_by"`
}

// ExtractedIdea is a candidate feature or requirement surfaced in
// conversation, tracked through its lifecycle until finalize.
type ExtractedIdea struct {
	ID              string              `json:"id"`
	Source          Source              `json:"source"`
	Idea            Content             `json:"idea"`
	Status          Status              `json:"status"`
	Evolution       []Version           `json:"evolution,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	InnovationLevel InnovationLevel     `json:"innovation_level,omitempty"`
	Context         ConversationContext `json:"conversation_context"`
}

// TopicGroup is a non-owning view that clusters ideas sharing a theme
// for batched human review. Every idea belongs to exactly one group.
type TopicGroup struct {
	Topic string           `json:"topic"`
	Icon  string           `json:"icon"`
	Ideas []*ExtractedIdea `json:"ideas"`
}

// ProjectItemMeta makes a project item traceable back to its brainstorm origin.
type ProjectItemMeta struct {
	FromBrainstorm bool          `json:"from_brainstorm"`
	SessionID      string        `json:"session_id,omitempty"`
	OriginalIdea   ExtractedIdea `json:"original_idea_snapshot"`
}

// ProjectItem is an entry in the project's permanent record. Once appended
// during finalize it is never rewritten — only new items are appended.
type ProjectItem struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Text      string          `json:"text"`
	State     DecisionState   `json:"state"`
	CreatedAt string          `json:"created_at"` // RFC3339
	Meta      ProjectItemMeta `json:"metadata"`
}

// SessionRecord is the immutable record of one completed review session.
// The accepted/rejected/unmarked lists are snapshots, not references.
type SessionRecord struct {
	ID                   string          `json:"id"`
	ConversationID       string          `json:"conversation_id"`
	Name                 string          `json:"name"`
	AcceptedIdeas        []ExtractedIdea `json:"accepted_ideas"`
	RejectedIdeas        []ExtractedIdea `json:"rejected_ideas"`
	UnmarkedIdeas        []ExtractedIdea `json:"unmarked_ideas"`
	GeneratedDocumentIDs []string        `json:"generated_document_ids"`
	UpdatedDocumentIDs   []string        `json:"updated_document_ids"`
	CreatedAt            string          `json:"created_at"`    // RFC3339
	CompletedAt          string          `json:"completed_at"`  // RFC3339
}

// VersionRecord is the audit entry emitted whenever an idea is recorded
// or modified. VersionNumber is always PreviousVersion + 1.
type VersionRecord struct {
	ItemID          string    `json:"item_id"`
	VersionNumber   int       `json:"version_number"`
	Content         Content   `json:"content"`
	ChangeType      string    `json:"change_type"`
	Reasoning       string    `json:"reasoning,omitempty"`
	TriggeredBy     ChangedBy `json:"triggered_by"`
	PreviousVersion int       `json:"previous_version"`
}
