package chat

var (
	CompressHistory   = compressHistory
	BuildSystemPrompt = buildSystemPrompt
)
