// Package prompts builds the chat prompts sent to the LLM for assessment
// and topic generation. Prompts demand JSON-only output so responses can be
// parsed without scraping.
package prompts

import (
	"fmt"
	"strings"

	"github.com/varna8104/AssessmentGen/internal/model"
)

// GenerationSystem primes the model for assessment generation.
const GenerationSystem = "You are an expert assessment creator. Always return valid JSON."

// TopicsSystem primes the model for topic extraction.
const TopicsSystem = `You are an expert curriculum designer. Analyze the assessment name and description, identify the actual subject matter, and generate specific, testable subtopics within that subject only. Each topic should be 2-6 words naming a concrete concept. Never produce generic topics like "Fundamentals" or "General Studies".`

// Assessment builds the user prompt for generating a complete assessment.
func Assessment(p model.GenerateParams) string {
	count := p.QuestionCount()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create exactly %d unique, topic-specific questions about %q.\n\n", count, p.AssessmentName)

	if p.AssessmentPrompt != "" {
		sb.WriteString("ASSESSMENT DESCRIPTION:\n" + p.AssessmentPrompt + "\n\n")
	}
	if len(p.SelectedTopics) > 0 {
		sb.WriteString("Cover these topics, distributing questions across them:\n")
		for _, topic := range p.SelectedTopics {
			sb.WriteString("- " + topic + "\n")
		}
		sb.WriteString("Set each question's \"topic\" field to the topic it covers.\n\n")
	}

	sb.WriteString("QUESTION TYPES: ")
	sb.WriteString(typeInstruction(p.AssessmentType))
	sb.WriteString("\n")

	switch {
	case p.EasyToHard:
		sb.WriteString("DIFFICULTY: Order questions from easiest to hardest. Mark roughly the first third \"Easy\", the middle third \"Medium\", and the final third \"Hard\".\n")
	case p.Difficulty != "":
		fmt.Fprintf(&sb, "DIFFICULTY: All questions at %q level.\n", p.Difficulty)
	default:
		sb.WriteString("DIFFICULTY: Mix Easy, Medium, and Hard questions.\n")
	}

	if p.Language != "" {
		fmt.Fprintf(&sb, "LANGUAGE: Write all questions, options, and explanations in %s.\n", p.Language)
	}

	sb.WriteString("\nReturn ONLY valid JSON in this format (no markdown fences):\n")
	sb.WriteString(`{
  "title": "Assessment title",
  "description": "Assessment description",
  "questions": [
    {
      "type": "single-choice | true-false | fill-in-blank | open-text",
      "question": "Your question here",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option A",
      "explanation": "Why this is correct",
      "difficulty": "Easy | Medium | Hard",
      "points": 1,
      "timeLimit": 30,
      "topic": "Topic covered"
    }
  ]
}`)
	sb.WriteString("\n\nFor true-false questions use options [\"True\", \"False\"] and the matching correctAnswer.\n")
	sb.WriteString("For fill-in-blank questions mark each blank with _____ in the question and set correctAnswer to an array with one string per blank.\n")
	sb.WriteString("For open-text questions omit options and set correctAnswer to a model answer.\n")

	return sb.String()
}

// Topics builds the user prompt for generating assessment subtopics.
func Topics(p model.GenerateParams) string {
	var sb strings.Builder
	sb.WriteString("Generate 15-20 specific subtopics for this assessment:\n\n")
	fmt.Fprintf(&sb, "Assessment Name: %s\n", p.AssessmentName)
	if p.AssessmentPrompt != "" {
		fmt.Fprintf(&sb, "Description: %s\n", p.AssessmentPrompt)
	}
	if p.AssessmentType != "" {
		fmt.Fprintf(&sb, "Question Types: %s\n", p.AssessmentType)
	}
	if p.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", p.Language)
	}
	sb.WriteString("\nIdentify the main subject from the name and description, then generate subtopics only within that subject.\n")
	sb.WriteString("\nReturn ONLY a JSON object, no other text:\n")
	sb.WriteString(`{"mainTopic": "The identified subject", "topics": ["specific", "subtopics", "within", "that", "subject"]}`)
	sb.WriteString("\n")
	return sb.String()
}

func typeInstruction(assessmentType string) string {
	switch strings.ToLower(strings.TrimSpace(assessmentType)) {
	case "mcq", "multiple-choice", "single-choice":
		return `Use only "single-choice" questions with exactly 4 options.`
	case "true-false":
		return `Use only "true-false" questions.`
	case "fill-in-blank", "fill-in-blanks":
		return `Use only "fill-in-blank" questions.`
	case "open-text", "subjective":
		return `Use only "open-text" questions.`
	default:
		return `Mix "single-choice", "true-false", "fill-in-blank", and "open-text" questions.`
	}
}
