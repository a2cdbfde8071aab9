package taxonomy

import "github.com/poiesic/conceptrag/core"

var defaultDefinitions = []Definition{
	{
		Category: core.CategoryBusiness,
		Prior:    1.0,
		Terms: []string{
			"policy", "procedure", "employee", "company", "work", "office", "meeting",
			"salary", "benefits", "vacation", "hours", "schedule", "department",
			"manager", "team", "project", "deadline", "budget", "revenue",
		},
	},
	{
		Category: core.CategoryTechnical,
		Prior:    1.0,
		Terms: []string{
			"algorithm", "data", "structure", "programming", "software", "system",
			"database", "server", "network", "security", "bug", "feature",
			"deployment", "testing", "debugging", "optimization", "performance",
		},
	},
	{
		Category: core.CategoryWeather,
		Prior:    1.1,
		Terms: []string{
			"weather", "temperature", "forecast", "rain", "sunny", "cloudy", "wind",
			"storm", "snow", "humidity", "pressure", "climate", "hot", "cold",
		},
	},
	{
		Category: core.CategoryEducation,
		Prior:    1.0,
		Terms: []string{
			"course", "syllabus", "assignment", "exam", "student", "grade", "class",
			"homework", "lecture", "professor", "university", "degree", "study",
		},
	},
	{
		Category: core.CategoryHealthcare,
		Prior:    1.0,
		Terms: []string{
			"patient", "medical", "diagnosis", "treatment", "symptom", "medication",
			"doctor", "hospital", "clinic", "health", "disease", "therapy",
		},
	},
	{
		Category: core.CategoryProduct,
		Prior:    1.0,
		Terms: []string{
			"specification", "feature", "price", "warranty", "manual", "guide",
			"quality", "brand", "model", "version", "catalog", "description",
		},
	},
	{
		Category: core.CategoryLocation,
		Prior:    0.9,
		Terms: []string{
			"address", "location", "place", "city", "country", "street", "building",
			"map", "directions", "distance", "travel", "transportation",
		},
	},
	{
		Category: core.CategoryTime,
		Prior:    0.9,
		Terms: []string{
			"time", "date", "schedule", "calendar", "appointment", "deadline",
			"duration", "period", "frequency", "timing", "when", "until",
			"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		},
	},
	{
		Category: core.CategoryFinancial,
		Prior:    1.0,
		Terms: []string{
			"money", "cost", "price", "payment", "budget", "invoice", "bill",
			"discount", "tax", "profit", "expense", "financial", "banking",
		},
	},
	{
		Category: core.CategoryGeneral,
		Prior:    0.8,
	},
}

var defaultImportance = map[string]float64{
	"weather": 2.0, "temperature": 2.0, "policy": 2.0,
	"employee": 2.0, "system": 2.0, "algorithm": 2.0,
	"work": 1.5, "data": 1.5, "meeting": 1.5, "project": 1.5, "feature": 1.5,
}
