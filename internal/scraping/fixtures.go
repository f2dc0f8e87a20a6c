package scraping

import "nexlyon/server/internal/models"

// DemoListings is the curated dataset loaded when live scraping is not
// available. It mixes fairly priced flats with a few discounted or
// energy-inefficient ones so every report section has content.
var DemoListings = []models.Property{
	{Title: "T2 Presqu'île rue Mercière", Price: 265000, Arrondissement: "Lyon 2e", Size: 48, Rooms: 2, DPE: "D",
		Description: "Appartement traversant au 3e étage sans ascenseur, proche Bellecour."},
	{Title: "T3 pentes de la Croix-Rousse à rénover", Price: 238000, Arrondissement: "Lyon 1er", Size: 67, Rooms: 3, DPE: "F",
		Description: "Canut avec hauteur sous plafond 3,90 m, travaux d'isolation à prévoir."},
	{Title: "T4 Croix-Rousse plateau avec balcon", Price: 389000, Arrondissement: "Lyon 4e", Size: 82, Rooms: 4, DPE: "C",
		Description: "Balcon filant, double exposition, cave et local vélos."},
	{Title: "Studio Part-Dieu investisseur", Price: 118000, Arrondissement: "Lyon 3e", Size: 24, Rooms: 1, DPE: "E",
		Description: "Studio loué meublé, idéal investissement locatif, proche gare."},
	{Title: "T3 Monplaisir proche métro D", Price: 249000, Arrondissement: "Lyon 8e", Size: 64, Rooms: 3, DPE: "D",
		Description: "Résidence récente, parking en sous-sol, 5 minutes du métro."},
	{Title: "T2 Guillotière lumineux", Price: 189000, Arrondissement: "Lyon 7e", Size: 45, Rooms: 2, DPE: "C",
		Description: "Séjour lumineux, cuisine équipée, quartier animé."},
	{Title: "T5 Brotteaux standing", Price: 712000, Arrondissement: "Lyon 6e", Size: 118, Rooms: 5, DPE: "B",
		Description: "Immeuble bourgeois, parquet, moulures, ascenseur et gardien."},
	{Title: "T3 Vaise passoire thermique", Price: 168000, Arrondissement: "Lyon 9e", Size: 66, Rooms: 3, DPE: "G",
		Description: "Prix attractif, rénovation énergétique complète à prévoir."},
	{Title: "T2 Vieux Lyon caractère", Price: 231000, Arrondissement: "Lyon 5e", Size: 50, Rooms: 2, DPE: "E",
		Description: "Poutres apparentes, vue sur cour Renaissance."},
	{Title: "T3 Gerland neuf", Price: 298000, Arrondissement: "Lyon 7e", Size: 63, Rooms: 3, DPE: "A",
		Description: "Programme neuf RE2020, terrasse de 12 m2, livraison récente."},
	{Title: "T4 Montchat familial", Price: 318000, Arrondissement: "Lyon 3e", Size: 88, Rooms: 4, DPE: "F",
		Description: "Grand appartement familial, chauffage électrique ancien."},
	{Title: "T2 Bachut rentabilité", Price: 142000, Arrondissement: "Lyon 8e", Size: 43, Rooms: 2, DPE: "D",
		Description: "Vendu loué, rendement brut supérieur à 6 %."},
}
