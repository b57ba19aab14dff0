package model

// Center is one of the physical gym branches. Trainers and members belong to
// exactly one center; admins have none.
type Center string

const (
    CenterRanaghat Center = "Ranaghat"
    CenterChakdah  Center = "Chakdah"
    CenterMadanpur Center = "Madanpur"
)

// Centers lists every branch in display order.
var Centers = []Center{CenterRanaghat, CenterChakdah, CenterMadanpur}

// Valid reports whether c names a known branch.
func (c Center) Valid() bool {
    for _, v := range Centers {
        if v == c {
            return true
        }
    }
    return false
}

// CenterInfo is the public description of a branch returned by GET /centers.
type CenterInfo struct {
    Name    Center `json:"name"`
    Address string `json:"address"`
}

// CenterDirectory holds the static branch list served to clients.
var CenterDirectory = []CenterInfo{
    {Name: CenterRanaghat, Address: "Ranaghat, Nadia, West Bengal"},
    {Name: CenterChakdah, Address: "Chakdah, Nadia, West Bengal"},
    {Name: CenterMadanpur, Address: "Madanpur, Nadia, West Bengal"},
}
