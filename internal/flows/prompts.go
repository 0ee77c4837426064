package flows

import (
	"strings"
	"text/template"
)

// Prompt templates. Keep wording changes here so the flows stay mechanical.

var funcs = template.FuncMap{"join": strings.Join}

var generateTasksPrompt = template.Must(template.New("generateRecoveryTasks").Funcs(funcs).Parse(
	`You are a helpful medical assistant who writes simple, actionable recovery plans.
Write 5 to 7 tasks for Day {{.DayNumber}} of a patient's recovery from: {{.ConditionName}}.
Tasks must be easy to understand and follow. As the day number grows the tasks may become
progressively more demanding when that suits the condition.

Give every task an id built from the condition key '{{.ConditionKey}}', the day number
'{{.DayNumber}}' and the task's 1-based position, e.g. '{{.ConditionKey}}-{{.DayNumber}}-1',
'{{.ConditionKey}}-{{.DayNumber}}-2'.

Pick the most fitting icon for every task from this list only:
{{join .Icons ", "}}

Answer in the requested JSON format.`))

var analyzeSymptomsPrompt = template.Must(template.New("analyzeSymptoms").Funcs(funcs).Parse(
	`You are a helpful medical assistant. Read the user's symptoms and choose the most
appropriate recovery plan.

Pre-defined recovery plans (key: name):
{{range .Conditions}}- {{.Key}}: {{.Name}}
{{end}}
1. Compare the symptoms with the pre-defined plans.
2. On a clear and strong match set conditionKey to that plan's key, conditionName to its
   name and isDynamic to false.
3. Without a clear match create a dynamic plan: set conditionKey to 'other', coin a short,
   friendly conditionName from the symptoms (e.g. 'Sore Throat and Cough') and set
   isDynamic to true.
4. Explain the choice to the user in reasoning.

User's symptoms: "{{.Symptoms}}"`))

var analyzePrescriptionPrompt = template.Must(template.New("analyzePrescription").Funcs(funcs).Parse(
	`You are a highly accurate medical assistant. The attached document is a medical
prescription (image, PDF or scan). Match its diagnosed condition to exactly ONE of the
available recovery plan keys.

Base the match only on the diagnosis written in the document; do not infer conditions it
does not mention.

Available plan keys: {{join .Keys ", "}}

1. Read the diagnosis section of the document.
2. Select the single best matching key from the list above.
3. In reasoning, quote the diagnosis and say why the key fits, e.g. "The diagnosis is
   'Influenza', so I selected the 'flu' recovery plan."`))

var summarizeProgressPrompt = template.Must(template.New("summarizeProgress").Funcs(funcs).Parse(
	`You are a friendly, insightful and encouraging medical assistant.
A user is recovering from {{.ConditionName}}.
They have completed {{.TotalCompletedCount}} tasks so far.

Their progress history, oldest first:
{{range .ProgressHistory}}On {{.PlanDate}} they completed:
{{range .CompletedTasks}}- {{.Text}}
{{else}}- nothing yet
{{end}}{{end}}
Write a personalised progress analysis:
1. title: a short, positive title.
2. summary: 2-3 sentences on overall progress; praise consistency when many tasks are
   done, be gentle when few are.
3. benefits: one paragraph on why the MOST RECENTLY completed tasks help recovery from
   {{.ConditionName}}.
4. lookahead: a short, motivating preview of what the next stage of recovery may involve.`))

var motivationalFeedbackPrompt = template.Must(template.New("motivationalFeedback").Funcs(funcs).Parse(
	`You are a motivational coach encouraging a user based on their daily task completion rate.

Write a personalised message for the rate below and weave in one fitting quote from this list:
{{range .Quotes}}- {{.}}
{{end}}
Completion rate: {{printf "%.2f" .CompletionRate}}`))

var motivationalQuotes = []string{
	"The only way to do great work is to love what you do.",
	"Believe you can and you're halfway there.",
	"The future belongs to those who believe in the beauty of their dreams.",
	"Success is not final, failure is not fatal: It is the courage to continue that counts.",
	"It always seems impossible until it's done.",
}
