package ai

import (
	"fmt"
	"strings"

	"github.com/zhixinliu/medichat/backend/internal/model/triage"
)

const conversationalPrompt = `You are an AI medical triage assistant conducting structured consultations, similar to how doctors assess patients. Maintain an empathetic, professional tone and use plain-language explanations alongside medical terminology.

IMPORTANT GUIDELINES:
- Prioritize patient safety and err on the side of caution.
- For chest pain, difficulty breathing, signs of stroke, severe bleeding, loss of consciousness or a mental health crisis, recommend immediate medical attention.
- Always include a brief reminder that you are not a replacement for professional medical advice.`

const triageQuestionPromptTemplate = `You are an AI medical triage assistant gathering a structured symptom history. This is question %d of %d. Ask exactly ONE focused follow-up question covering what you still need to know: onset, duration, severity, location, triggers, associated symptoms, medical history or impact on daily activities.

Respond ONLY with a strict JSON object in this exact shape, with exactly 4 options and no surrounding text:
{"question": "<your single question>", "options": ["<option A>", "<option B>", "<option C>", "<option D or 'None of the above'>"]}

Keep each option a short, concrete description of the patient's situation. Prioritize patient safety: if an answer so far suggests an emergency, make the question address it.`

const finalAssessmentPromptTemplate = `You are an AI medical triage assistant concluding a structured consultation. The patient has answered the triage questions below. Provide a comprehensive final assessment.

Information gathered during triage:
%s

Structure your reply as:
## Medical Assessment Summary

**Possible Conditions:** 2-3 most likely conditions in plain language.

**Urgency Level:** Immediate / Urgent / Routine / Self-care.

**Immediate Actions:** specific action items and self-care measures.

**When to Seek Medical Care:** red-flag symptoms to watch for and a follow-up timeline.

**Self-Care Recommendations:** specific guidance and lifestyle adjustments.

End with a clear medical disclaimer. Prioritize patient safety and err on the side of caution.`

// optionRetryPrompt asks the model to salvage multiple-choice options for a
// question it already produced in free-form text.
const optionRetryPrompt = `Return ONLY a JSON array of exactly 4 short answer-option strings for the medical triage question below. No prose, no object wrapper, just the array.`

// buildSystemPrompt selects the prompt variant for the request phase.
func buildSystemPrompt(req Request, threshold int) string {
	switch {
	case req.IsFinalAssessment:
		return fmt.Sprintf(finalAssessmentPromptTemplate, formatTriageData(req.TriageData))
	case req.NeedsOptions:
		step := req.StepNumber
		if step < 1 {
			step = 1
		}
		return fmt.Sprintf(triageQuestionPromptTemplate, step, threshold)
	default:
		return conversationalPrompt
	}
}

// formatTriageData renders the gathered symptom map as a bullet list, main
// symptom first, then the step answers in order.
func formatTriageData(data map[string]string) string {
	if len(data) == 0 {
		return "- (no structured answers recorded)"
	}

	var builder strings.Builder
	if main, ok := data[triage.MainSymptomKey]; ok {
		fmt.Fprintf(&builder, "- Main symptom: %s\n", main)
	}
	for step := 1; step <= len(data); step++ {
		key := fmt.Sprintf("step_%d", step)
		answer, ok := data[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&builder, "- Answer %d: %s\n", step, answer)
	}
	return strings.TrimRight(builder.String(), "\n")
}
