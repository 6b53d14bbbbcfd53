package models

// Question is one multiple-choice quiz question
type Question struct {
	Number      int
	Question    string
	Answers     []string
	RightAnswer int
}

// QuizQuestions returns the club's coding quiz in presentation order
func QuizQuestions() []Question {
	return []Question{
		{
			Number:   1,
			Question: "What does HTML stand for?",
			Answers: []string{
				"Hyper Text Markup Language",
				"High Tech Modern Language",
				"Home Tool Markup Language",
				"Hyperlinks and Text Markup Language",
			},
			RightAnswer: 0,
		},
		{
			Number:      2,
			Question:    "Which language is primarily used for styling web pages?",
			Answers:     []string{"JavaScript", "Python", "CSS", "Java"},
			RightAnswer: 2,
		},
		{
			Number:   3,
			Question: "What is the correct syntax for a JavaScript function?",
			Answers: []string{
				"function myFunction()",
				"def myFunction()",
				"func myFunction()",
				"function: myFunction()",
			},
			RightAnswer: 0,
		},
		{
			Number:      4,
			Question:    "Which of these is a NoSQL database?",
			Answers:     []string{"MySQL", "PostgreSQL", "MongoDB", "SQLite"},
			RightAnswer: 2,
		},
		{
			Number:   5,
			Question: "What does API stand for?",
			Answers: []string{
				"Application Programming Interface",
				"Advanced Programming Integration",
				"Application Process Integration",
				"Advanced Program Interface",
			},
			RightAnswer: 0,
		},
	}
}
