package feed

const profileNote = "X content is not scraped without official API. Open the official profile."

// xProfile builds the standard mirror chain for an X account: RSS bridges
// first (they get blocked often, hence two of them), the official profile
// as the link-only last resort.
func xProfile(id, name, handle string) Source {
	return Source{
		ID:   id,
		Name: name,
		Note: profileNote,
		Endpoints: []Endpoint{
			{URL: "https://nitter.net/" + handle + "/rss", Kind: EndpointFeed},
			{URL: "https://rsshub.app/twitter/user/" + handle, Kind: EndpointFeed},
			{URL: "https://x.com/" + handle, Kind: EndpointProfile},
		},
	}
}

// DefaultCatalog returns the static source index: the science journals plus
// the six technology observation groups. Updating it means redeploying,
// which is fine at the rate these lists change.
func DefaultCatalog() Catalog {
	return NewCatalog([]Category{
		{
			ID:          "science",
			Name:        "Science",
			Observation: "Top-level sensors for frontier shifts entering mainstream science",
			Sources: []Source{
				{ID: "nature", Name: "Nature", Endpoints: []Endpoint{
					{URL: "https://www.nature.com/nature.rss", Kind: EndpointFeed},
					{URL: "https://www.nature.com/news", Kind: EndpointPage},
				}},
				{ID: "science", Name: "Science", Endpoints: []Endpoint{
					{URL: "https://www.science.org/action/showFeed?type=etoc&feed=rss&jc=science", Kind: EndpointFeed},
					{URL: "https://www.science.org/news", Kind: EndpointPage},
				}},
				{ID: "aps", Name: "APS / PRL", Endpoints: []Endpoint{
					{URL: "https://feeds.aps.org/rss/recent/prl.xml", Kind: EndpointFeed},
					{URL: "https://journals.aps.org/prl/", Kind: EndpointPage},
				}},
			},
		},
		{
			ID:          "policy",
			Name:        "Institutions × Technology",
			Observation: "The point where technology outruns institutions",
			Sources: []Source{
				{ID: "oecd", Name: "OECD", Endpoints: []Endpoint{
					{URL: "https://www.oecd.org/en/topics.xml", Kind: EndpointFeed},
					{URL: "https://www.oecd.org/en/topics/technology-policy.html", Kind: EndpointPage},
				}},
				{ID: "nist", Name: "NIST", Endpoints: []Endpoint{
					{URL: "https://www.nist.gov/news-events/news/rss.xml", Kind: EndpointFeed},
					{URL: "https://www.nist.gov/news-events/news/search", Kind: EndpointPage},
				}},
				{ID: "wef", Name: "World Economic Forum", Endpoints: []Endpoint{
					{URL: "https://centres.weforum.org/centre-for-regions-trade-and-geopolitics/home", Kind: EndpointPage},
				}},
			},
		},
		{
			ID:          "ai-compute",
			Name:        "AI & Compute Foundations",
			Observation: "Where human judgment becomes unnecessary / impossible",
			Sources: []Source{
				{ID: "openai", Name: "OpenAI", Endpoints: []Endpoint{
					{URL: "https://openai.com/blog/rss.xml", Kind: EndpointFeed},
					{URL: "https://openai.com/news/company-announcements/", Kind: EndpointPage},
				}},
				xProfile("karpathy", "Andrej Karpathy (X)", "karpathy"),
				xProfile("ilyasut", "Ilya Sutskever (X)", "ilyasut"),
				xProfile("hinton", "Geoffrey Hinton (X)", "geoffreyhinton"),
			},
		},
		{
			ID:          "semiconductor",
			Name:        "Semiconductors & Compute Infrastructure",
			Observation: "Physical constraints that software cannot override",
			Sources: []Source{
				{ID: "nvidia", Name: "NVIDIA", Endpoints: []Endpoint{
					{URL: "https://nvidianews.nvidia.com/rss.xml", Kind: EndpointFeed},
					{URL: "https://nvidianews.nvidia.com", Kind: EndpointPage},
				}},
				{ID: "tsmc", Name: "TSMC", Endpoints: []Endpoint{
					{URL: "https://pr.tsmc.com/english/latest-news", Kind: EndpointPage},
				}},
				{ID: "asml", Name: "ASML", Endpoints: []Endpoint{
					{URL: "https://www.asml.com/en/news", Kind: EndpointPage},
				}},
			},
		},
		{
			ID:          "quantum",
			Name:        "Quantum Technology",
			Observation: "Signals of moving from control to structure",
			Sources: []Source{
				{ID: "quanta", Name: "Quanta Magazine", Endpoints: []Endpoint{
					{URL: "https://www.quantamagazine.org/feed/", Kind: EndpointFeed},
					{URL: "https://www.quantamagazine.org", Kind: EndpointPage},
				}},
				{ID: "psiq", Name: "PsiQuantum", Endpoints: []Endpoint{
					{URL: "https://www.psiquantum.com/news/rss.xml", Kind: EndpointFeed},
					{URL: "https://www.psiquantum.com/news", Kind: EndpointPage},
				}},
				xProfile("preskill", "John Preskill (X)", "preskill"),
			},
		},
		{
			ID:          "energy",
			Name:        "Energy & Foundational Infrastructure",
			Observation: "Whether systems are designed assuming humans cannot stop them",
			Sources: []Source{
				{ID: "doe", Name: "US DOE", Endpoints: []Endpoint{
					{URL: "https://www.energy.gov/rss/science/3662436", Kind: EndpointFeed},
					{URL: "https://www.energy.gov/newsroom", Kind: EndpointPage},
				}},
				{ID: "iter", Name: "ITER", Endpoints: []Endpoint{
					{URL: "https://www.iter.org/rss/NewsLine.rss", Kind: EndpointFeed},
					{URL: "https://www.iter.org/press-clippings", Kind: EndpointPage},
				}},
				{ID: "ibm", Name: "IBM Newsroom", Endpoints: []Endpoint{
					{URL: "https://newsroom.ibm.com/announcements?output=rss", Kind: EndpointFeed},
					{URL: "https://newsroom.ibm.com", Kind: EndpointPage},
				}},
				{ID: "spacex", Name: "SpaceX", Endpoints: []Endpoint{
					{URL: "https://www.spacex.com/updates", Kind: EndpointPage},
				}},
				xProfile("elonmusk", "Elon Musk (X)", "elonmusk"),
			},
		},
		{
			ID:          "space",
			Name:        "Space",
			Observation: "Deployment beyond any single institution's reach",
			Sources: []Source{
				{ID: "nasa", Name: "NASA", Endpoints: []Endpoint{
					{URL: "https://www.nasa.gov/rss/dyn/breaking_news.rss", Kind: EndpointFeed},
				}},
			},
		},
		{
			ID:          "bio",
			Name:        "Bio & Life Manipulation",
			Observation: "Irreversible manipulation of living systems",
			Sources: []Source{
				{ID: "broad", Name: "Broad Institute", Endpoints: []Endpoint{
					{URL: "https://www.broadinstitute.org/rss/news.xml", Kind: EndpointFeed},
					{URL: "https://www.broadinstitute.org/news", Kind: EndpointPage},
				}},
				{ID: "nbt", Name: "Nature Biotechnology", Endpoints: []Endpoint{
					{URL: "https://www.nature.com/nbt.rss", Kind: EndpointFeed},
					{URL: "https://www.nature.com/nbt/", Kind: EndpointPage},
				}},
			},
		},
	})
}
