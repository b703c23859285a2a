package structure

import "math"

// DefaultBondTolerance scales the sum of covalent radii when deciding
// whether two atoms are bonded.
const DefaultBondTolerance = 1.2

// minBondDistance rejects overlapping atoms as bonds.
const minBondDistance = 0.4

// PerceiveBonds replaces r.Bonds with single bonds between every pair of
// atoms closer than tolerance times the sum of their covalent radii, then
// upgrades bonds between unsaturated atoms with AssignBondOrders. Atoms with
// unknown elements never bond. Best effort: it is not a chemistry-correct
// bond-order algorithm.
func PerceiveBonds(r *Record, tolerance float64) {
	if tolerance <= 0 {
		tolerance = DefaultBondTolerance
	}
	n := len(r.Atoms)
	radii := make([]float64, n)
	known := make([]bool, n)
	for i, a := range r.Atoms {
		radii[i], known[i] = covalentRadius(a.Element)
	}

	r.Bonds = r.Bonds[:0]
	for i := 0; i < n; i++ {
		if !known[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !known[j] {
				continue
			}
			limit := (radii[i] + radii[j]) * tolerance
			d := distance(r.Atoms[i].Coordinates, r.Atoms[j].Coordinates)
			if d >= minBondDistance && d <= limit {
				r.Bonds = append(r.Bonds, Bond{I: i + 1, J: j + 1, Order: BondSingle})
			}
		}
	}
	AssignBondOrders(r)
}

// AssignBondOrders raises single bonds to double or triple where both atoms
// have valence left over. Atoms whose only unsaturated neighbour is fixed
// are resolved first; ties fall back to bond order in the list.
func AssignBondOrders(r *Record) {
	n := len(r.Atoms)
	free := make([]int, n+1)
	for i, a := range r.Atoms {
		free[i+1] = typicalValence(a.Element)
	}
	for _, b := range r.Bonds {
		free[b.I] -= b.Order.Multiplicity()
		free[b.J] -= b.Order.Multiplicity()
	}

	// bond indices touching each atom
	touching := make([][]int, n+1)
	for k, b := range r.Bonds {
		touching[b.I] = append(touching[b.I], k)
		touching[b.J] = append(touching[b.J], k)
	}

	upgradable := func(k int) bool {
		b := r.Bonds[k]
		return free[b.I] > 0 && free[b.J] > 0 && (b.Order == BondSingle || b.Order == BondDouble)
	}
	upgrade := func(k int) {
		b := &r.Bonds[k]
		if b.Order == BondSingle {
			b.Order = BondDouble
		} else {
			b.Order = BondTriple
		}
		free[b.I]--
		free[b.J]--
	}

	for {
		progressed := false
		// forced choices: an unsaturated atom with exactly one candidate bond
		for atom := 1; atom <= n; atom++ {
			if free[atom] <= 0 {
				continue
			}
			candidate, count := -1, 0
			for _, k := range touching[atom] {
				if upgradable(k) {
					candidate = k
					count++
				}
			}
			if count == 1 {
				upgrade(candidate)
				progressed = true
			}
		}
		if progressed {
			continue
		}
		// no forced choice left: take the first remaining candidate
		for k := range r.Bonds {
			if upgradable(k) {
				upgrade(k)
				progressed = true
				break
			}
		}
		if !progressed {
			return
		}
	}
}

func distance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
