// internal/workers/prompts/prompt-store/defaults.go
package promptstore

const defaultRaceContext = `Provide race weekend context for the {circuit} Grand Prix on {raceDate} in {season}. Include:
- Weather forecast (temperature, rain probability, wind)
- Track characteristics and key corners
- Historical safety car statistics at this circuit
- Strategy considerations (tire compounds, pit stop windows)
- Recent race history at this circuit (last 3 years)
- Any unique challenges this circuit presents

Keep it concise and factual. Return the response as JSON.`

const defaultDriverPreview = `Write a "what to look for with {driverName}" text for the upcoming F1 {circuit} GP.

Driver: {driverName} (#{driverNumber})
Team: {team}

Race Context:
{raceContext}

{sessionContext}

Consider:
- Current form and recent results this season (last 5 races)
- Previous performance at this circuit (if applicable)
- Car setup considerations for this track
- Stakes (championship position, career implications, contract situation)
- Driver strengths and weaknesses relevant to this circuit
- What would be a good/perfect result (qualifying and race)

Provide two versions:
1. TLDR: 2-3 sentences max, punchy and informative
2. FULL: Comprehensive analysis with multiple sections (300-400 words). Use markdown formatting with:
   - ## headers for main sections
   - Bullet points for lists
   - **bold** for emphasis
   Include sections on:
   - Current form and momentum
   - Circuit-specific strengths/challenges
   - Championship/career context and stakes
   - Key battles to watch (teammates, rivals)
   - What success looks like this weekend

Format as JSON:
{
  "tldr": "...",
  "full": "...",
  "perfect_quali": "P1-P3",
  "perfect_race": "Podium finish",
  "good_quali": "P4-P6",
  "good_race": "Points finish",
  "stakes_level": "high/medium/low",
  "key_strengths": ["strength1", "strength2"],
  "watch_for": "specific thing to watch"
}`

const defaultTop5 = `Based on these driver previews and race context, identify the TOP 5 DRIVERS TO WATCH for this race weekend.

Consider:
- Championship stakes (title fight, team battles)
- Pressure situations (contract year, recent struggles/success)
- Current form (hot streak, redemption arc)
- Track-specific advantages (historical performance, driving style match)
- Storylines (rivalries, milestones, team dynamics)

For each driver, provide:
- Driver name
- Position in ranking (1-5)
- 1-2 sentence abstract explaining why they're must-watch
- Link reference to full preview

Return as JSON array:
[
  {
    "rank": 1,
    "driver": "Driver Name",
    "reason": "Compelling 1-2 sentence explanation",
    "stakes": "What's on the line"
  }
]`

const defaultUnderdogs = `Identify 3 UNDERDOG STORIES for this race weekend.

An underdog story should feature drivers who:
- Could surprise with performance above expectations
- Have something significant to prove
- Face adversity or a unique opportunity
- Are flying under the radar but could shine
- Have track-specific advantages not widely recognized

For each underdog, provide:
- Driver name
- Story title (catchy, 5-7 words)
- Story description (2-3 sentences explaining the narrative)
- Why they could surprise

Return as JSON array:
[
  {
    "driver": "Driver Name",
    "title": "Catchy story title",
    "story": "2-3 sentence narrative",
    "surprise_factor": "Why they could overperform"
  }
]`

const defaultPrediction = `Based on these detailed driver previews for the {circuit} Grand Prix on {raceDate}, provide your race weekend predictions.

{sessionContext}

Driver Previews:
{driverPreviews}

Race Context:
{raceContext}

Provide predictions in markdown format as a numbered list including:
1. **Qualifying Top 3** - Who will take pole, P2, P3 and why
2. **Race Podium** - Predicted race winner and podium finishers with reasoning
3. **Driver of the Weekend** - Who will have the standout performance
4. **Dark Horse** - Which driver could surprise and outperform expectations
5. **Key Battle** - The most exciting head-to-head fight to watch
6. **Bold Prediction** - One surprising or controversial prediction

Be specific, use driver names, and explain your reasoning based on the preview data.`

var defaultPrompts = map[PromptID]string{
	PromptRaceContext:   defaultRaceContext,
	PromptDriverPreview: defaultDriverPreview,
	PromptTop5:          defaultTop5,
	PromptUnderdogs:     defaultUnderdogs,
	PromptPrediction:    defaultPrediction,
}

// Default returns the built-in template for id.
func Default(id PromptID) (string, bool) {
	p, ok := defaultPrompts[id]
	return p, ok
}
