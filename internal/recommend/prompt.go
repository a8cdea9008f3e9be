package recommend

import "fmt"

// RecommendationCount is how many movies the model is asked for.
const RecommendationCount = 9

// SystemPrompt frames the model as a movie expert answering in JSON.
const SystemPrompt = "You are a knowledgeable movie expert who provides personalized movie recommendations. Always respond with valid JSON format."

const promptTemplate = `Based on the following user request, recommend exactly %[1]d movies that would be perfect for them.

User's request: "%[2]s"

Please respond with a JSON array of exactly %[1]d movie recommendations. Each movie should include:
- title: The movie title
- year: Release year
- genre: Main genre(s)
- reason: Brief explanation (1-2 sentences) of why this movie matches their request
- rating: IMDB rating if known, or "N/A" if not available
- match_percentage: A number between %[3]d-%[4]d representing how well this movie matches their request (higher = better match)
- detailed_explanation: A longer explanation (2-3 sentences) of why this movie is perfect for them based on their specific request

Format your response as a valid JSON array like this:
[
  {
    "title": "Movie Title",
    "year": 2023,
    "genre": "Action, Thriller",
    "reason": "This movie perfectly matches your request because...",
    "rating": "8.5",
    "match_percentage": 92,
    "detailed_explanation": "This movie is an excellent choice for you because it perfectly captures the mood and style you're looking for. The action sequences are thrilling and the storyline keeps you engaged throughout. Based on your request for something exciting and fast-paced, this film delivers exactly what you need."
  }
]

Make sure the recommendations are diverse and cover different aspects of what the user is looking for.`

// BuildPrompt renders the user prompt for the supplied free-text request.
func BuildPrompt(userInput string) string {
	return fmt.Sprintf(promptTemplate, RecommendationCount, userInput, MinMatchPercentage, MaxMatchPercentage)
}
