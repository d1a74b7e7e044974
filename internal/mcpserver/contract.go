package mcpserver

// DictationFormatContract describes how encounter text is classified so
// LLM consumers can phrase dictation that lands in the intended sections.
const DictationFormatContract = `# SOAP Dictation Format Contract

Encounter text passed to ` + "`" + `create_note` + "`" + ` is split into sentences and each
sentence is assigned to exactly one SOAP section.

## Sections

- **Subjective** – what the patient says: symptoms, complaints, history.
- **Objective** – what the physician measures: vitals, exam findings, labs.
- **Assessment** – the physician's interpretation: diagnosis, impression.
- **Plan** – what happens next: prescriptions, referrals, follow-up.

## Classification rules

1. Sentences end at ` + "`" + `.` + "`" + `, ` + "`" + `!` + "`" + `, ` + "`" + `?` + "`" + `, or a line break. A period between
   two digits (e.g. ` + "`" + `99.2` + "`" + `) does not end a sentence.
2. Each sentence is matched against per-language keyword lists. Plan
   keywords win over Assessment, Assessment over Objective, Objective
   over Subjective.
3. A sentence matching no keyword goes to **Subjective**.
4. Matching is case-insensitive substring containment, so "Prescribed
   ibuprofen" matches the Plan keyword "prescribe".

## Dictation tips

- One clinical fact per sentence. A sentence naming both a diagnosis and
  a prescription lands in Plan (highest-priority match).
- Lead with a section cue: "Patient reports ...", "Blood pressure is ...",
  "Diagnosis is ...", "Prescribe ...".
- Write in the language declared by the ` + "`" + `language` + "`" + ` argument; keyword
  lists are per-language.

## Supported languages

` + "`" + `en-US` + "`" + `, ` + "`" + `es-ES` + "`" + `, ` + "`" + `fr-FR` + "`" + `, ` + "`" + `it-IT` + "`" + `, ` + "`" + `tr-TR` + "`" + `, ` + "`" + `de-DE` + "`" + `.
The default is ` + "`" + `en-US` + "`" + `.

## Audio

Attach the original dictation recording with the ` + "`" + `attach_audio` + "`" + ` tool
(base64-encoded WAV, or a ` + "`" + `data:audio/wav;base64,` + "`" + ` URI). Attaching again
replaces what is served; deleting the note deletes its recordings.
`
