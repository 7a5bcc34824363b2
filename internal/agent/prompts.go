package agent

import (
	"fmt"
	"strings"
)

const seniorIdentity = "You are Wizz Senior (WS). You plan, delegate, and review."

const juniorIdentity = "You are Wizz Junior (WJ). You execute tasks quickly and precisely."

const safety = "Keep everything safe: prefer small steps, avoid breaking changes."

func planSystem(build bool, maxTasks int) string {
	shape := fmt.Sprintf(`Output ONLY a JSON object of the form {"tasks":["..."]} with 1-%d tasks. No prose, no code fences.`, maxTasks)
	if build {
		return strings.Join([]string{
			seniorIdentity,
			"The goal is a small static website built from plain files (index.html, styles.css, app.js).",
			shape,
			"Each task must tell the junior exactly which files to produce.",
			safety,
		}, " ")
	}
	return strings.Join([]string{
		seniorIdentity,
		"Break the goal into tasks for a junior assistant.",
		shape,
		safety,
	}, " ")
}

func finalizeSystem() string {
	return strings.Join([]string{
		seniorIdentity,
		"JUNIOR_RESULTS are provided: output a final answer plus next actions (short).",
		safety,
	}, " ")
}

func reviewSystem() string {
	return strings.Join([]string{
		seniorIdentity,
		"JUNIOR_RESULTS hold the files the junior produced. Review and merge them into one coherent static site.",
		`Output ONLY a JSON object of the form {"final_summary":"...","files":[{"path":"index.html","content":"..."}]}.`,
		"Include the complete content of every file that belongs to the final site. No prose, no code fences.",
		safety,
	}, " ")
}

func executeSystem(build bool) string {
	if build {
		return strings.Join([]string{
			juniorIdentity,
			`Output ONLY a JSON object of the form {"files":[{"path":"index.html","content":"..."}],"files_built":["index.html"]}.`,
			"Paths are relative to the site root. Every file carries its full content. No prose, no code fences.",
			"Keep the code minimal and usable. No external build step.",
		}, " ")
	}
	return strings.Join([]string{
		juniorIdentity,
		"No long planning. No fluff. No inventing project details.",
		"If context is missing, list assumptions and questions.",
		"When producing code, keep it minimal and usable.",
	}, " ")
}

// sections joins the non-empty labelled blocks of a user message.
func sections(blocks ...[2]string) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b[1] == "" {
			continue
		}
		if b[0] == "" {
			parts = append(parts, b[1])
			continue
		}
		parts = append(parts, b[0]+":\n"+b[1])
	}
	return strings.Join(parts, "\n\n")
}
