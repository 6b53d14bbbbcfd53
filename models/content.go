package models

import "strings"

// Event is a club event listed on the events page
type Event struct {
	ID          int
	Title       string `validate:"required"`
	Description string
	Date        string `validate:"required,datetime=2006-01-02"`
	Time        string `validate:"required"`
	Venue       string `validate:"required"`
	Category    string `validate:"required,oneof=Workshop Competition Bootcamp"`
	Attendees   int    `validate:"gte=0"`
}

// Project is a member project shown on the projects page
type Project struct {
	ID           int
	Title        string
	Description  string
	Technologies []string
	Contributors []string
	DemoURL      string
	GithubURL    string
	Category     string
}

// TeamMember is a club officer
type TeamMember struct {
	Name string
	Role string
	Bio  string
}

// Value is one of the club's core values
type Value struct {
	Title       string
	Description string
}

// Feature is a home page highlight
type Feature struct {
	Title       string
	Description string
}

// Certification is a batch of certificates issued for an event
type Certification struct {
	ID     int
	Title  string
	Date   string
	Event  string
	Issued string
}

// EventCategories are the categories an event can be filed under
var EventCategories = []string{"Workshop", "Competition", "Bootcamp"}

// AllCategories is the filter value that matches every category
const AllCategories = "All"

// ClubName is used in greetings and page titles
const ClubName = "GMU Coding Club"

// About is the short club history from the about page
const About = "Founded in 2020, GMU Coding Club has grown into one of the most active tech communities on campus, " +
	"bringing together students passionate about programming, innovation, and collaboration."

// Mission is the club mission statement
const Mission = "To empower students with the skills, knowledge, and opportunities needed to excel in the " +
	"ever-evolving world of technology. We strive to create a supportive environment where members can learn, " +
	"build, compete, and grow together as developers and innovators."

// CanonicalEventCategory maps category onto its spelling in EventCategories, ignoring case.
// The second result is false for unknown categories.
func CanonicalEventCategory(category string) (string, bool) {
	for _, c := range EventCategories {
		if strings.EqualFold(c, strings.TrimSpace(category)) {
			return c, true
		}
	}
	return category, false
}

// SeedEvents returns the events the catalog starts with
func SeedEvents() []Event {
	return []Event{
		{
			ID:          1,
			Title:       "Introduction to React Workshop",
			Description: "Learn the fundamentals of React and build your first component-based application.",
			Date:        "2025-11-15",
			Time:        "6:00 PM - 8:00 PM",
			Venue:       "Lab 301",
			Category:    "Workshop",
			Attendees:   45,
		},
		{
			ID:          2,
			Title:       "Hackathon 2025",
			Description: "48-hour coding marathon. Build innovative solutions and compete for amazing prizes!",
			Date:        "2025-12-05",
			Time:        "All Day (Dec 5-7)",
			Venue:       "Main Hall",
			Category:    "Competition",
			Attendees:   120,
		},
		{
			ID:          3,
			Title:       "Python for Data Science",
			Description: "Explore data analysis and visualization using Python libraries like Pandas and Matplotlib.",
			Date:        "2025-11-22",
			Time:        "5:30 PM - 7:30 PM",
			Venue:       "Room 205",
			Category:    "Workshop",
			Attendees:   38,
		},
		{
			ID:          4,
			Title:       "Web Development Bootcamp",
			Description: "Full-stack web development fundamentals covering HTML, CSS, JavaScript, and Node.js.",
			Date:        "2025-11-29",
			Time:        "4:00 PM - 7:00 PM",
			Venue:       "Lab 401",
			Category:    "Bootcamp",
			Attendees:   52,
		},
	}
}

// SeedProjects returns the member projects
func SeedProjects() []Project {
	return []Project{
		{
			ID:           1,
			Title:        "Campus Event Finder",
			Description:  "A web app to discover and manage campus events, with real-time notifications and calendar integration.",
			Technologies: []string{"React", "Node.js", "MongoDB", "Socket.io"},
			Contributors: []string{"Alex Johnson", "Sarah Chen"},
			DemoURL:      "https://demo.example.com",
			GithubURL:    "https://github.com/gmucodingclub/campus-events",
			Category:     "Web",
		},
		{
			ID:           2,
			Title:        "Study Buddy AI",
			Description:  "An AI-powered study assistant that helps students with homework, provides explanations, and creates practice quizzes.",
			Technologies: []string{"Python", "TensorFlow", "Flask", "React"},
			Contributors: []string{"Michael Brown", "Emily Davis"},
			GithubURL:    "https://github.com/gmucodingclub/study-buddy",
			Category:     "AI/ML",
		},
		{
			ID:           3,
			Title:        "Code Collaboration Platform",
			Description:  "Real-time collaborative coding environment with video chat, syntax highlighting, and version control.",
			Technologies: []string{"TypeScript", "WebRTC", "Express", "PostgreSQL"},
			Contributors: []string{"David Wilson", "Lisa Anderson"},
			DemoURL:      "https://demo.example.com",
			GithubURL:    "https://github.com/gmucodingclub/code-collab",
			Category:     "Web",
		},
		{
			ID:           4,
			Title:        "Mobile Fitness Tracker",
			Description:  "Cross-platform mobile app for tracking workouts, nutrition, and setting fitness goals with social features.",
			Technologies: []string{"React Native", "Firebase", "Redux"},
			Contributors: []string{"James Taylor", "Maria Garcia"},
			GithubURL:    "https://github.com/gmucodingclub/fitness-tracker",
			Category:     "Mobile",
		},
		{
			ID:           5,
			Title:        "Data Visualization Dashboard",
			Description:  "Interactive dashboard for visualizing and analyzing campus data including enrollment, courses, and facilities.",
			Technologies: []string{"D3.js", "React", "Python", "Pandas"},
			Contributors: []string{"Robert Martinez", "Jennifer Lee"},
			DemoURL:      "https://demo.example.com",
			GithubURL:    "https://github.com/gmucodingclub/data-viz",
			Category:     "Data Science",
		},
		{
			ID:           6,
			Title:        "Blockchain Voting System",
			Description:  "Secure and transparent voting system using blockchain technology for club elections and polls.",
			Technologies: []string{"Solidity", "Ethereum", "Web3.js", "React"},
			Contributors: []string{"Christopher White", "Amanda Clark"},
			GithubURL:    "https://github.com/gmucodingclub/blockchain-voting",
			Category:     "Blockchain",
		},
	}
}

// SeedTeam returns the club officers
func SeedTeam() []TeamMember {
	return []TeamMember{
		{Name: "Alex Rodriguez", Role: "President", Bio: "Computer Science senior passionate about web development and open source."},
		{Name: "Sarah Johnson", Role: "Vice President", Bio: "Software Engineering student specializing in mobile app development."},
		{Name: "Michael Chen", Role: "Technical Lead", Bio: "Full-stack developer with expertise in React, Node.js, and cloud computing."},
		{Name: "Emily Martinez", Role: "Events Coordinator", Bio: "Organizing amazing workshops and hackathons to bring the community together."},
	}
}

// SeedValues returns the club values
func SeedValues() []Value {
	return []Value{
		{Title: "Community First", Description: "We believe in creating an inclusive environment where everyone can thrive and learn together."},
		{Title: "Goal-Oriented", Description: "Setting clear objectives and working systematically to achieve excellence in coding."},
		{Title: "Innovation", Description: "Encouraging creative thinking and embracing new technologies to solve real-world problems."},
		{Title: "Passion", Description: "Fostering a genuine love for programming and technology that drives continuous learning."},
	}
}

// SeedFeatures returns the home page highlights
func SeedFeatures() []Feature {
	return []Feature{
		{Title: "Learn & Code", Description: "Master programming languages and build real-world projects"},
		{Title: "Collaborate", Description: "Connect with fellow coders and work on exciting team projects"},
		{Title: "Compete", Description: "Participate in hackathons and coding competitions"},
		{Title: "Launch", Description: "Deploy your projects and showcase your skills"},
	}
}

// SeedCertifications returns the certificate batches issued so far
func SeedCertifications() []Certification {
	return []Certification{
		{ID: 1, Title: "React Workshop Completion", Date: "October 2025", Event: "Introduction to React", Issued: "150 certificates"},
		{ID: 2, Title: "Hackathon 2024 Participant", Date: "December 2024", Event: "Annual Hackathon", Issued: "120 certificates"},
		{ID: 3, Title: "Python Bootcamp Graduate", Date: "September 2025", Event: "Python for Beginners", Issued: "85 certificates"},
	}
}

// SeedBenefits returns the membership benefits listed on the join page
func SeedBenefits() []string {
	return []string{
		"Access to exclusive workshops and bootcamps",
		"Networking opportunities with industry professionals",
		"Participation in hackathons and coding competitions",
		"Resume-building project experience",
		"Mentorship from senior members",
		"Career guidance and interview preparation",
	}
}
