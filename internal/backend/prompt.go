package backend

const systemPrompt = `You are an assistant and you MUST answer using only the context below.
If the answer is not present in the context, say that it is not available.`

func userPrompt(question, contextText string) string {
	return "CONTEXT:\n" + contextText + "\n\nQUESTION:\n" + question + "\n\nAnswer clearly, in the user's language."
}

func appendSourceNote(answer, sourceNote string) string {
	if sourceNote == "" {
		return answer
	}
	return answer + "\n\n" + sourceNote
}
