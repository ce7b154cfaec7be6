package halsning

// Default models per service. Overridable through client options where a
// service supports it.
const (
	// ModelChat handles the guide conversation and plain text generation.
	ModelChat = "gemini-2.5-flash"

	// ModelThinking is selected for grounded requests with extended
	// reasoning enabled and for the video analysis fallback.
	ModelThinking = "gemini-2.5-pro"

	// ModelVision analyzes uploaded images.
	ModelVision = "gemini-2.5-flash"

	// ModelImageGenerate produces keepsake images.
	ModelImageGenerate = "imagen-4.0-generate-001"

	// ModelImageEdit rewrites an existing image from a text instruction.
	ModelImageEdit = "gemini-2.5-flash-image"

	// ModelVideoGenerate produces keepsake videos through a long-running
	// operation.
	ModelVideoGenerate = "veo-3.1-fast-generate-preview"

	// ModelLive is the native-audio realtime conversation model.
	ModelLive = "models/gemini-2.5-flash-native-audio-preview-09-2025"
)

// DefaultVoice is the prebuilt voice requested for live sessions.
const DefaultVoice = "Zephyr"

// DefaultLiveSystemInstruction frames the live assistant's persona.
const DefaultLiveSystemInstruction = "You are a friendly and helpful AI assistant for the 'Min Sista Hälsning' app. Keep your responses concise and empathetic."
