package game

// Built-in content used when a room does not bring its own.

var wordleWords = []string{
	"ВЕСНА", "МЕЧТА", "СВЕЧА", "ПЕСНЯ", "ЛАСКА",
	"ЗАКАТ", "ВИШНЯ", "ТАНЕЦ", "ОСЕНЬ", "РАДОСТЬ",
	"РОЗА", "ЛЕТО", "ОБЛАКО",
}

var codenamesWords = []string{
	"apple", "bridge", "castle", "dragon", "engine", "forest", "ghost", "harbor",
	"island", "jungle", "kettle", "lemon", "mirror", "needle", "ocean", "piano",
	"queen", "rocket", "shadow", "tiger", "umbrella", "violin", "whale", "yacht",
	"zebra", "anchor", "button", "candle", "desert", "feather", "garden", "helmet",
	"icicle", "jacket", "kingdom", "ladder", "magnet", "nest", "orbit", "pirate",
}

var memoryFaces = []string{
	"heart", "star", "moon", "sun", "rose", "ring", "key", "bell", "gift",
	"cake", "leaf", "candle", "letter", "coffee", "bear", "cloud", "rainbow", "wine",
}

// quizRoundLength caps how many built-in questions one game asks.
const quizRoundLength = 5

var quizBank = []QuizQuestion{
	{Text: "Which planet is known as the red planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Answer: 1},
	{Text: "How many minutes are in a day?", Options: []string{"1440", "1240", "1600", "960"}, Answer: 0},
	{Text: "Which flower is the traditional gift for a first date?", Options: []string{"Tulip", "Lily", "Rose", "Daisy"}, Answer: 2},
	{Text: "In which city is the Eiffel Tower?", Options: []string{"Rome", "Madrid", "Berlin", "Paris"}, Answer: 3},
	{Text: "What is the chemical symbol for gold?", Options: []string{"Au", "Ag", "Gd", "Go"}, Answer: 0},
	{Text: "Which anniversary is traditionally paper?", Options: []string{"Tenth", "First", "Fifth", "Twentieth"}, Answer: 1},
	{Text: "How many keys does a standard piano have?", Options: []string{"76", "88", "92", "64"}, Answer: 1},
	{Text: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, Answer: 3},
	{Text: "Who wrote \"Romeo and Juliet\"?", Options: []string{"Dickens", "Tolstoy", "Shakespeare", "Austen"}, Answer: 2},
	{Text: "What do bees make?", Options: []string{"Milk", "Honey", "Silk", "Wax paper"}, Answer: 1},
}
