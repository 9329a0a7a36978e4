package car

// DefaultRoster returns the bundled 24-car grid used when the caller
// supplies no driver list. Skill, aggression, and consistency are
// normalised to [0, 1].
func DefaultRoster() []Driver {
	return []Driver{
		{Name: "Pascal Wehrlein", Team: "TAG Heuer Porsche", Number: 94, Skill: 0.90, Aggression: 0.75, Consistency: 0.95},
		{Name: "Antonio Felix da Costa", Team: "TAG Heuer Porsche", Number: 13, Skill: 0.80, Aggression: 0.78, Consistency: 0.93},
		{Name: "Mitch Evans", Team: "Jaguar TCS Racing", Number: 9, Skill: 0.70, Aggression: 0.82, Consistency: 0.91},
		{Name: "Nick Cassidy", Team: "Jaguar TCS Racing", Number: 37, Skill: 0.80, Aggression: 0.80, Consistency: 0.92},
		{Name: "Jean-Eric Vergne", Team: "DS Penske", Number: 25, Skill: 1.00, Aggression: 0.76, Consistency: 0.96},
		{Name: "Stoffel Vandoorne", Team: "DS Penske", Number: 2, Skill: 0.70, Aggression: 0.72, Consistency: 0.94},
		{Name: "Robin Frijns", Team: "Envision Racing", Number: 4, Skill: 0.60, Aggression: 0.81, Consistency: 0.89},
		{Name: "Sebastien Buemi", Team: "Envision Racing", Number: 16, Skill: 0.90, Aggression: 0.74, Consistency: 0.95},
		{Name: "Sacha Fenestraz", Team: "Nissan", Number: 23, Skill: 0.40, Aggression: 0.77, Consistency: 0.88},
		{Name: "Norman Nato", Team: "Nissan", Number: 17, Skill: 0.30, Aggression: 0.83, Consistency: 0.86},
		{Name: "Oliver Rowland", Team: "Mahindra Racing", Number: 30, Skill: 0.60, Aggression: 0.79, Consistency: 0.90},
		{Name: "Edoardo Mortara", Team: "Mahindra Racing", Number: 48, Skill: 0.70, Aggression: 0.77, Consistency: 0.92},
		{Name: "Maximilian Guenther", Team: "Maserati MSG Racing", Number: 7, Skill: 0.50, Aggression: 0.80, Consistency: 0.87},
		{Name: "Jehan Daruvala", Team: "Maserati MSG Racing", Number: 21, Skill: 0.20, Aggression: 0.78, Consistency: 0.85},
		{Name: "Jake Dennis", Team: "Andretti", Number: 27, Skill: 0.80, Aggression: 0.81, Consistency: 0.93},
		{Name: "Andre Lotterer", Team: "Andretti", Number: 36, Skill: 0.60, Aggression: 0.75, Consistency: 0.91},
		{Name: "Nico Mueller", Team: "ABT Cupra", Number: 51, Skill: 0.50, Aggression: 0.76, Consistency: 0.89},
		{Name: "Lucas di Grassi", Team: "ABT Cupra", Number: 11, Skill: 0.90, Aggression: 0.73, Consistency: 0.94},
		{Name: "Jake Hughes", Team: "Neom McLaren", Number: 5, Skill: 0.40, Aggression: 0.82, Consistency: 0.86},
		{Name: "Sam Bird", Team: "Neom McLaren", Number: 10, Skill: 0.60, Aggression: 0.79, Consistency: 0.90},
		{Name: "Rene Rast", Team: "Neom McLaren", Number: 3, Skill: 0.40, Aggression: 0.77, Consistency: 0.88},
		{Name: "Dan Ticktum", Team: "NIO 333", Number: 33, Skill: 0.30, Aggression: 0.84, Consistency: 0.84},
		{Name: "Sergio Sette Camara", Team: "NIO 333", Number: 19, Skill: 0.20, Aggression: 0.80, Consistency: 0.83},
		{Name: "Nyck de Vries", Team: "ERT", Number: 22, Skill: 0.50, Aggression: 0.74, Consistency: 0.90},
	}
}
