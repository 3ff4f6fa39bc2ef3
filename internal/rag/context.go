package rag

import (
	"fmt"
	"strings"
)

// AgentProfile carries the candidate settings that shape generated
// answers. Account storage for candidates lives outside this engine;
// callers pass the profile in.
type AgentProfile struct {
	CandidateID    int64
	Name           string
	AgentName      string
	Tone           string // "formal" or "accessible"
	ResponseLength string // "concise" or "detailed"
}

var toneInstructions = map[string]string{
	"formal":     "Maintain a professional and formal tone. Use complete sentences and avoid colloquialisms.",
	"accessible": "Use clear, friendly language that's easy to understand. Be warm and approachable.",
}

var lengthInstructions = map[string]string{
	"concise":  "Keep responses brief and to the point, typically 2-3 sentences.",
	"detailed": "Provide comprehensive answers with explanations and context when appropriate.",
}

// ContextBuilder assembles the system prompt handed to the answer
// generator from the candidate profile and retrieved program sections.
type ContextBuilder struct{}

// NewContextBuilder creates a context builder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// FallbackMessage is the fixed reply when no program content exists for
// a candidate yet. Generation is not invoked in that case.
func (cb *ContextBuilder) FallbackMessage(profile *AgentProfile) string {
	return fmt.Sprintf("Je n'ai pas encore accès au programme complet. Je vous encourage à contacter %s directement.", profile.Name)
}

// ApologyMessage is the fixed reply when retrieval or generation fails.
// Internals are never surfaced to citizens.
func (cb *ContextBuilder) ApologyMessage() string {
	return "Désolé, une erreur technique est survenue. Veuillez réessayer dans quelques instants."
}

// SystemPrompt builds the instruction block for the generator: cite
// pages, stay inside the provided sections, answer in French.
func (cb *ContextBuilder) SystemPrompt(profile *AgentProfile, sections []Result) string {
	tone, ok := toneInstructions[profile.Tone]
	if !ok {
		tone = toneInstructions["accessible"]
	}
	length, ok := lengthInstructions[profile.ResponseLength]
	if !ok {
		length = lengthInstructions["concise"]
	}

	contextParts := make([]string, 0, len(sections))
	for _, section := range sections {
		contextParts = append(contextParts, fmt.Sprintf("[Page %d]\n%s", section.Page, section.Text))
	}
	contextText := strings.Join(contextParts, "\n\n")

	return fmt.Sprintf(`You are %s, an AI assistant for %s's municipal campaign.

IMPORTANT INSTRUCTIONS:
- Answer questions based ONLY on the provided program sections below
- %s
- %s
- Always cite specific page numbers when referencing the program
- If a topic is not covered in the program, respond: "Ce sujet n'est pas abordé dans le programme. Je vous encourage à contacter %s directement pour plus d'informations."
- Be helpful, accurate, and maintain a non-partisan tone
- Respond in French

PROGRAM SECTIONS:
%s

Remember: Only answer based on the above sections. If the information isn't there, admit it.`,
		profile.AgentName, profile.Name, tone, length, profile.Name, contextText)
}
