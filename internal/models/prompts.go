package models

// NoAnswerSentinel is the exact phrase the model is instructed to emit when
// the retrieved context does not contain the answer. Callers may compare
// against it to tell "no answer" apart from a real answer.
const NoAnswerSentinel = "answer is not available in the context"

// AnswerPromptTemplate is filled with the concatenated context chunks and the
// question (or task instruction).
const AnswerPromptTemplate = `Answer the question as detailed as possible from the provided context. If the answer is not in
the provided context, just say, "answer is not available in the context." Don't provide the wrong answer.
You can create summaries, question-answer pairs, and personalized flashcards for uploaded documents.

Context:
%s

Question:
%s

Answer:
`

// SummaryInstruction is the synthetic question used by the summary template.
const SummaryInstruction = "summarize the entire document and extract key points"

// FlashcardsInstruction is the synthetic question used by the flashcards template.
const FlashcardsInstruction = `Extract key concepts from the uploaded document and generate flashcards in the following format:
Flashcard [Number]:
Question: [Concise and clear question]
Answer: [Brief, precise answer with relevant details]

Ensure that:
Questions are clear and to the point.
Answers are informative yet concise.
Important technical terms are included.
Each flashcard follows a structured and consistent format.`
