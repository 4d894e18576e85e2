// Package prompt assembles the single instruction string sent to the model.
// The assistant is steered entirely through this text; the ordering of its
// parts and the refusal wording are a hard contract.
package prompt

import (
	"strings"

	"pdfchat/internal/model"
)

const systemInstruction = "You are an AI assistant specialized ONLY in summarizing a text/pdf, comparing two text snippets/pdfs, " +
	"and answering questions based on the provided PDF document context.\n" +
	"DO NOT answer questions unrelated to the PDFs or these tasks.\n" +
	"If a question is outside your scope, respond politely with: " +
	"'Sorry, I can only assist with information from the PDFs provided.'\n\n"

// HistoryPolicy bounds how much prior conversation enters the prompt.
type HistoryPolicy struct {
	// MaxMessages is the number of trailing messages kept (10 = 5 turns).
	MaxMessages int
}

// Window applies the policy to an ordered history.
func (p HistoryPolicy) Window(history []model.Message) []model.Message {
	if p.MaxMessages <= 0 || len(history) <= p.MaxMessages {
		return history
	}
	return history[len(history)-p.MaxMessages:]
}

// Assembler builds strict prompts from retrieved context, a bounded history
// window, and the new user message.
type Assembler struct {
	policy HistoryPolicy
}

func NewAssembler(policy HistoryPolicy) *Assembler {
	return &Assembler{policy: policy}
}

// Build renders, in fixed order: the scope-restricting system instruction,
// the document context block (only when context is non-empty), the recent
// history, and the new user turn with a trailing assistant cue.
func (a *Assembler) Build(context string, history []model.Message, userMessage string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	if context != "" {
		b.WriteString("Document Context:\n")
		b.WriteString(context)
		b.WriteString("\n\n")
	}

	recent := a.policy.Window(history)
	if len(recent) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, m := range recent {
			b.WriteString(renderRole(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

func renderRole(r model.Role) string {
	if r == model.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
