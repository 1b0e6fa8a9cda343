package qa

import "strings"

// The prompts are German because the corpus and the users are: retrieval
// quality and the "irrelevant" sentinel both depend on prompt and corpus
// sharing a language.

const promptRAG = `Beantworte die folgende Frage nur basierend auf dem bereitgestellten Kontext.
Begründe deine Antwort mit einem knappen Satz.
Falls es relevante Randbedingungen gibt, beschreibe diese in einem weiteren Satz.
Solltest du die Frage nicht rein basierend auf dem Kontext beantworten können, antworte, dass du die Antwort nicht weißt.
KONTEXT:
{context}
FRAGE:
{question}
`

const promptMapReduce = `Beantworte die folgende Frage nur basierend auf dem bereitgestellten Kontext.
Begründe deine Antwort mit einem knappen Satz.
Beschreibe in einem weiteren Satz die Voraussetzungen für die Anwendbarkeit dieses Gesetzes.
Sollte der Kontext ungeeignet sein um die Frage zu beantworten, antworte NUR mit dem einen Wort ` + "`irrelevant`" + `.
KONTEXT:
{context}
FRAGE:
{question}
`

const promptMapReduceSummary = `Beantworte die folgende Frage nur basierend auf dem folgenden Kontext, welcher aus den gegebenen Ausschnitten zusammengefasst wurde.
Begründe deine Antwort mit einem knappen Satz.
Beschreibe in einem weiteren Satz die Voraussetzungen für die Anwendbarkeit der relevanten Gesetze.
Sollte die Frage nicht rein basierend auf dem Kontext beantwortbar sein, antworte, dass du die Antwort nicht weißt.
Sollte der Kontext widersprüchliche Informationen enthalten, beschreibe diesen Widerspruch knapp.
KONTEXT:
{context}
FRAGE:
{question}
`

const promptGenerateQuestion = `Nimm die Rolle eines freundlichen und hilfreichen Lernpartners ein.
Erstelle hierfür basierend auf dem im Folgenden gegebenen Kontext eine Frage.
Diese Frage soll geeignet sein, um zu prüfen, ob der Partner das Gesetz kennt und verstanden hat.
Antworte NUR mit der generierten Frage.
KONTEXT:
{context}
`

const promptAssessAnswer = `Nimm die Rolle eines freundlichen und hilfreichen Lernpartners ein.
Ein Lernender sollte die später genannte Frage beantworten.
Beurteile basierend auf dem gegebenen Kontext, ob der Lösungsvorschlag des Lernenden korrekt ist.
Falls der Lösungsvorschlag falsch ist, gib eine knappe und präzise Erklärung der richtigen Antwort.
Antworte NUR mit der Bewertung des Lösungsvorschlags und einer Erklärung.
FRAGE:
{question}
KONTEXT:
{context}
LÖSUNGSVORSCHLAG DES LERNENDEN:
{response}
`

const promptExtractVerdict = `Im Folgenden steht die Bewertung eines Lösungsvorschlags durch einen Lernpartner.
Antworte NUR mit dem einen Wort ` + "`ja`" + `, falls der Lösungsvorschlag als korrekt bewertet wurde, andernfalls NUR mit dem einen Wort ` + "`nein`" + `.
BEWERTUNG:
{assessment}
`

// noRelevantContext is the fixed terminal answer when every retrieved chunk
// was filtered out in the map phase.
const noRelevantContext = "In den geprüften Gesetzesauszügen wurden keine relevanten Informationen zu dieser Frage gefunden."

// irrelevantSentinel is the literal reply the map prompt instructs the model
// to give for unusable context.
const irrelevantSentinel = "irrelevant"

func renderPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
